package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"deco-ledger/internal/domain/ledger"
)

const namespace = "deco_ledger"

// Ledger counts ledger operations by outcome and token movements by direction.
type Ledger struct {
	operations *prometheus.CounterVec
	transfers  *prometheus.CounterVec
	volume     *prometheus.CounterVec
	requests   *prometheus.HistogramVec
}

func NewLedger(reg prometheus.Registerer) (*Ledger, error) {
	m := &Ledger{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by name and result code.",
		}, []string{"op", "code"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_transfers_total",
			Help:      "Completed token transfers by direction.",
		}, []string{"direction"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_transfer_amount_total",
			Help:      "Sum of transferred token amounts by direction.",
		}, []string{"direction"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	for _, c := range []prometheus.Collector{m.operations, m.transfers, m.volume, m.requests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Ledger) ObserveOperation(op string, err error) {
	code := "OK"
	if err != nil {
		code = string(ledger.CodeOf(err))
		if code == "" {
			code = "INTERNAL"
		}
	}
	m.operations.WithLabelValues(op, code).Inc()
}

func (m *Ledger) ObserveTransfer(direction string, amount int64) {
	m.transfers.WithLabelValues(direction).Inc()
	m.volume.WithLabelValues(direction).Add(float64(amount))
}

// Middleware records request latency per matched route.
func (m *Ledger) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := strconv.Itoa(c.Response().Status)
			m.requests.WithLabelValues(c.Request().Method, c.Path(), status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
