package upstream

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call against one of the platform backends. The
// presentation layer renders each kind as a displayable message; nothing is
// retried automatically.
type Kind string

const (
	KindFetch  Kind = "fetch"
	KindUpload Kind = "upload"
	KindSave   Kind = "save"
	KindAuth   Kind = "auth"
	KindTerms  Kind = "terms"
	KindAdmin  Kind = "admin"
)

// Error wraps a failed backend call with its classification.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int // zero when the call never produced a response
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend responded %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an upstream failure of the given kind.
func IsKind(err error, kind Kind) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == kind
}

// AsError extracts the upstream classification from an error chain.
func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}
