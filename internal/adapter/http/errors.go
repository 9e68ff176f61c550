package http

import (
	"net/http"

	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo/v4"

	"deco-ledger/internal/adapter/middleware"
	domain "deco-ledger/internal/domain/ledger"
)

var log = logging.Logger("http")

func statusOf(c echo.Context, code domain.Code) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeUnauthorized, domain.CodeNotVerifiedVC:
		if _, ok := middleware.Caller(c); !ok {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case domain.CodeAlreadyInitialized, domain.CodeAlreadyApplied, domain.CodeAlreadyVoted,
		domain.CodeAlreadyVC, domain.CodeAlreadyRequested, domain.CodeReleaseModeDisabled:
		return http.StatusConflict
	case domain.CodeVotingClosed, domain.CodeNotApproved, domain.CodeNothingToClaim,
		domain.CodeAllocationExceeded, domain.CodeActiveInvestments, domain.CodeNotInitialized:
		return http.StatusUnprocessableEntity
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeTransferFailed:
		return http.StatusBadGateway
	case domain.CodeTransferUnconfirmed, domain.CodeTransferUnrecorded:
		// not 5xx: the idempotency record must stay so a retry cannot pay twice
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders a ledger failure. Foreign errors become a bare 500.
func writeError(c echo.Context, err error) error {
	code := domain.CodeOf(err)
	status := statusOf(c, code)
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "err", err)
		return c.JSON(status, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(status, ErrorResponse{Error: err.Error(), Code: string(code)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindAndValidate returns false after writing the response when the body is unusable.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	return true, nil
}

func pathPrincipal(c echo.Context, name string) (domain.Principal, bool) {
	p := domain.Principal(c.Param(name))
	return p, p.Valid()
}
