package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/ipfs/go-cid"

	domain "deco-ledger/internal/domain/ledger"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// account strkey, e.g. "GABC..."
	_ = v.RegisterValidation("principal", func(fl validator.FieldLevel) bool {
		return domain.Principal(fl.Field().String()).Valid()
	})
	// empty is allowed; pair with required when needed
	_ = v.RegisterValidation("cid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := cid.Decode(s)
		return err == nil
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "principal":
			out = append(out, FieldError{Field: field, Message: "must be a valid account address"})
		case "cid":
			out = append(out, FieldError{Field: field, Message: "must be a valid IPFS CID"})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "max":
			out = append(out, FieldError{Field: field, Message: "must be at most " + e.Param() + " characters"})
		case "url":
			out = append(out, FieldError{Field: field, Message: "must be a URL"})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
