package tree

import (
	"errors"
	"fmt"
)

var (
	// ErrDanglingParent is returned when a row references a parent that is
	// not part of the input or that never connects to a root.
	ErrDanglingParent = errors.New("dangling parent reference")

	// ErrDuplicateID is returned when two rows share an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrCrossReview is returned when a reply's parent belongs to another review.
	ErrCrossReview = errors.New("reply parent belongs to another review")

	// ErrUnknownID is returned when a path is requested for an absent id.
	ErrUnknownID = errors.New("unknown id")
)

// ConsistencyError reports corrupted input. Builders return it instead of a
// partial tree.
type ConsistencyError struct {
	Source string
	ID     int32
	Parent int32
	Err    error
}

func (e *ConsistencyError) Error() string {
	if e.Parent != 0 {
		return fmt.Sprintf("%s %d: %s (parent %d)", e.Source, e.ID, e.Err, e.Parent)
	}
	return fmt.Sprintf("%s %d: %s", e.Source, e.ID, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// IsConsistency reports whether err came from a tree builder.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
