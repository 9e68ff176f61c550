package tokenclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	logging "github.com/ipfs/go-log/v2"

	"deco-ledger/internal/domain/token"
)

var log = logging.Logger("tokenclient")

const (
	transferPath = "/v1/tokens/{token}/transfers"
	lookupPath   = "/v1/tokens/{token}/transfers/{reference}"

	// RetryMaxWait caps the backoff between two attempts.
	RetryMaxWait = time.Second
)

// Transfer states reported by the token service.
const (
	statusSettled  = "settled"
	statusRejected = "rejected"
)

type transferRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

type transferResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the token service over HTTP. Retries are safe because every
// request carries the transfer reference as its Idempotency-Key. When no
// answer arrives the transfer is looked up by reference before giving up.
type Client struct {
	http    *resty.Client
	timeout time.Duration
}

var _ token.Service = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration, retries int) *Client {
	return NewClientWithResty(resty.New(), baseURL, apiKey, timeout, retries)
}

func NewClientWithResty(rc *resty.Client, baseURL, apiKey string, timeout time.Duration, retries int) *Client {
	rc.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(RetryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})
	if apiKey != "" {
		rc.SetAuthToken(apiKey)
	}
	return &Client{http: rc, timeout: timeout}
}

func (c *Client) Transfer(ctx context.Context, t token.Transfer) error {
	var (
		ok   transferResponse
		fail errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("token", t.Token).
		SetHeader("Idempotency-Key", t.Reference).
		SetBody(transferRequest{
			From:      string(t.From),
			To:        string(t.To),
			Amount:    strconv.FormatInt(t.Amount, 10),
			Reference: t.Reference,
		}).
		SetResult(&ok).
		SetError(&fail).
		Post(transferPath)
	if err != nil {
		log.Warnw("no answer to transfer, looking it up", "ref", t.Reference, "err", err)
		return c.resolve(ctx, t, fmt.Errorf("failed to execute transfer request: %w", err))
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return c.resolve(ctx, t, fmt.Errorf("token service failed transfer %s: %d", t.Reference, resp.StatusCode()))
	}
	if resp.IsError() {
		msg := fail.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("token service rejected transfer %s: %d %s", t.Reference, resp.StatusCode(), msg)
	}
	log.Debugw("transfer accepted", "ref", t.Reference, "id", ok.ID, "status", ok.Status)
	return nil
}

// resolve asks the token service what became of t after its request went
// unanswered. cause is returned when the service confirms nothing moved.
func (c *Client) resolve(ctx context.Context, t token.Transfer, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	var got transferResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"token": t.Token, "reference": t.Reference}).
		SetResult(&got).
		Get(lookupPath)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %s: %v (lookup: %v)", token.ErrUnconfirmed, t.Reference, cause, err)
	case resp.StatusCode() == http.StatusNotFound:
		log.Infow("unanswered transfer was not applied", "ref", t.Reference)
		return cause
	case resp.IsSuccess() && got.Status == statusSettled:
		log.Infow("unanswered transfer was applied", "ref", t.Reference, "id", got.ID)
		return nil
	case resp.IsSuccess() && got.Status == statusRejected:
		return fmt.Errorf("token service rejected transfer %s: %w", t.Reference, cause)
	}
	return fmt.Errorf("%w: %s: %v (lookup: %d %s)", token.ErrUnconfirmed, t.Reference, cause, resp.StatusCode(), got.Status)
}
