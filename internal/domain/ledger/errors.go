package ledger

import "errors"

// Code is the machine-readable failure cause of a ledger operation.
type Code string

const (
	CodeAlreadyInitialized  Code = "ALREADY_INITIALIZED"
	CodeNotInitialized      Code = "NOT_INITIALIZED"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyApplied      Code = "ALREADY_APPLIED"
	CodeAlreadyVoted        Code = "ALREADY_VOTED"
	CodeVotingClosed        Code = "VOTING_CLOSED"
	CodeNotApproved         Code = "NOT_APPROVED"
	CodeNotVerifiedVC       Code = "NOT_VERIFIED_VC"
	CodeAlreadyVC           Code = "ALREADY_VC"
	CodeAlreadyRequested    Code = "ALREADY_REQUESTED"
	CodeNothingToClaim      Code = "NOTHING_TO_CLAIM"
	CodeAllocationExceeded  Code = "ALLOCATION_EXCEEDED"
	CodeActiveInvestments   Code = "ACTIVE_INVESTMENTS"
	CodeReleaseModeDisabled Code = "RELEASE_MODE_DISABLED"
	CodeInvalidArgument     Code = "INVALID_ARGUMENT"
	CodeTransferFailed      Code = "TRANSFER_FAILED"
	// CodeTransferUnconfirmed means the token service could not say whether a
	// transfer was applied. State is left as it was.
	CodeTransferUnconfirmed Code = "TRANSFER_UNCONFIRMED"
	// CodeTransferUnrecorded means tokens moved but the matching state change
	// could not be committed.
	CodeTransferUnrecorded Code = "TRANSFER_UNRECORDED"
)

// Error is a ledger failure. Two errors match under errors.Is when their codes match.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(code Code, message string) *Error { return &Error{Code: code, Message: message} }

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the ledger code carried by err, or "" for foreign errors.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

var (
	ErrAlreadyInitialized  = New(CodeAlreadyInitialized, "ledger already initialized")
	ErrNotInitialized      = New(CodeNotInitialized, "ledger not initialized")
	ErrUnauthorized        = New(CodeUnauthorized, "unauthorized")
	ErrNotFound            = New(CodeNotFound, "not found")
	ErrAlreadyApplied      = New(CodeAlreadyApplied, "already applied")
	ErrAlreadyVoted        = New(CodeAlreadyVoted, "already voted")
	ErrVotingClosed        = New(CodeVotingClosed, "voting period has ended")
	ErrNotApproved         = New(CodeNotApproved, "startup not approved yet")
	ErrNotVerifiedVC       = New(CodeNotVerifiedVC, "not a verified VC")
	ErrAlreadyVC           = New(CodeAlreadyVC, "already a VC")
	ErrAlreadyRequested    = New(CodeAlreadyRequested, "VC request already pending")
	ErrNothingToClaim      = New(CodeNothingToClaim, "no funds to claim")
	ErrAllocationExceeded  = New(CodeAllocationExceeded, "cannot unlock more than allocated")
	ErrActiveInvestments   = New(CodeActiveInvestments, "VC has active investments")
	ErrReleaseModeDisabled = New(CodeReleaseModeDisabled, "operation disabled by ledger policy")
	ErrInvalidArgument     = New(CodeInvalidArgument, "invalid argument")
	ErrTransferFailed      = New(CodeTransferFailed, "token transfer failed")
	ErrTransferUnconfirmed = New(CodeTransferUnconfirmed, "token transfer outcome unknown")
	ErrTransferUnrecorded  = New(CodeTransferUnrecorded, "token transfer not recorded")
)
