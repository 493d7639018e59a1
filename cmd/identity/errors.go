package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the sentinel kind for missing rows.
	ErrNotFound = errors.New("not found")

	// ErrConflict is the sentinel kind for uniqueness violations.
	ErrConflict = errors.New("conflict")
)

// OpError is a typed operation error with a stable Op + Kind contract.
// Kind is one of the sentinel kinds above; Msg may add context but
// must never include secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err represents ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
