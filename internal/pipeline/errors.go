package pipeline

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindQuotaExceeded
	KindNotFound
	KindExtraction
	KindAnalysis
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindNotFound:
		return "not_found"
	case KindExtraction:
		return "extraction"
	case KindAnalysis:
		return "analysis"
	case KindPersistence:
		return "persistence"
	default:
		return "internal"
	}
}

// Kind sentinels, usable with errors.Is against any *Error.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuth          = errors.New("auth error")
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrNotFound      = errors.New("not found")
	ErrExtraction    = errors.New("extraction error")
	ErrAnalysis      = errors.New("analysis error")
	ErrPersistence   = errors.New("persistence error")
	ErrInternal      = errors.New("internal error")
)

var kindSentinels = map[Kind]error{
	KindValidation:    ErrValidation,
	KindAuth:          ErrAuth,
	KindQuotaExceeded: ErrQuotaExceeded,
	KindNotFound:      ErrNotFound,
	KindExtraction:    ErrExtraction,
	KindAnalysis:      ErrAnalysis,
	KindPersistence:   ErrPersistence,
	KindInternal:      ErrInternal,
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind carried by err, or KindInternal when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
