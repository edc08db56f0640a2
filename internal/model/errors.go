package model

import (
	"errors"
	"fmt"
)

// FailureKind Классификация ошибок игры
type FailureKind string

const (
	KindPreflight        FailureKind = "PreflightFailure"
	KindSubmission       FailureKind = "SubmissionRejected"
	KindReceiptMismatch  FailureKind = "ReceiptProtocolMismatch"
	KindPollingTransient FailureKind = "PollingTransientError"
	KindPollTimeout      FailureKind = "PollTimeout"
	KindResolution       FailureKind = "ResolutionInvariantViolation"
)

var (
	ErrLedgerRevert     = errors.New("ledger call reverted")
	ErrTimedOut         = errors.New("timed out waiting for fulfilment")
	ErrPlayNotFound     = errors.New("play not found")
	ErrNotTerminal      = errors.New("play is still in progress")
	ErrTableNotFound    = errors.New("probability table not found")
	ErrUnknownNetwork   = errors.New("unknown network")
	ErrInvalidIntent    = errors.New("invalid play intent")
	ErrStatsUnavailable = errors.New("pool size or price unavailable")
)

// PlayError Ошибка с видом из таксономии
type PlayError struct {
	Kind FailureKind
	Op   string
	Err  error
}

func NewPlayError(kind FailureKind, op string, err error) *PlayError {
	return &PlayError{Kind: kind, Op: op, Err: err}
}

func (e *PlayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *PlayError) Unwrap() error {
	return e.Err
}

// KindOf Достает вид ошибки из цепочки
func KindOf(err error) (FailureKind, bool) {
	var pe *PlayError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// UserMessage Текст для пользователя. Сырые ошибки транспорта наружу не попадают.
func UserMessage(kind FailureKind) string {
	switch kind {
	case KindPreflight:
		return "Spending approval was not granted. Nothing was charged, you can try again."
	case KindSubmission:
		return "The transaction was rejected."
	case KindReceiptMismatch:
		return "The transaction was confirmed but the play could not be identified."
	case KindPollingTransient, KindPollTimeout:
		return "The result did not arrive in time."
	case KindResolution:
		return "The result could not be interpreted."
	default:
		return "Unknown error"
	}
}
