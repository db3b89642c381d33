package loanform

import (
	"errors"
	"fmt"
	"strings"

	"lendview/services/lending/rpcclient"
)

// Failure reasons attached to rejected submissions.
const (
	ReasonRejected          = "rejected"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonPaused            = "paused"
	ReasonFailed            = "failed"
)

// userRejectedCode is the wallet provider code for a request the user declined.
const userRejectedCode = 4001

var (
	// ErrSubmitDisabled is returned when the form does not hold a valid loan.
	ErrSubmitDisabled = errors.New("loanform: submit disabled")
	// ErrSubmitterMissing is returned when no transaction submitter is wired.
	ErrSubmitterMissing = errors.New("loanform: submitter not configured")
)

// SubmitError carries the classified reason a submission failed.
type SubmitError struct {
	Reason string
	Err    error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("loanform: submit %s: %v", e.Reason, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// ClassifyError maps a submitter failure onto one of the Reason constants.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	var rpcErr *rpcclient.Error
	if errors.As(err, &rpcErr) && rpcErr.Code == userRejectedCode {
		return ReasonRejected
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rejected"), strings.Contains(msg, "denied"):
		return ReasonRejected
	case strings.Contains(msg, "insufficient funds"), strings.Contains(msg, "insufficient balance"):
		return ReasonInsufficientFunds
	case strings.Contains(msg, "paused"):
		return ReasonPaused
	default:
		return ReasonFailed
	}
}

func failureMessage(reason string) string {
	switch reason {
	case ReasonRejected:
		return "The transaction was rejected."
	case ReasonInsufficientFunds:
		return "Insufficient funds to cover the collateral."
	case ReasonPaused:
		return "Lending is paused. Try again later."
	default:
		return "The loan could not be opened."
	}
}
