// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// DegradedError reports that a stage fell back to a substitute value. The
// value returned alongside it is usable; callers log the error and continue.
type DegradedError struct {
	// Stage names the step that degraded (e.g. "candidates", "embeddings").
	Stage string

	// Err is the underlying failure.
	Err error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("%s degraded: %v", e.Stage, e.Err)
}

func (e *DegradedError) Unwrap() error { return e.Err }

// Degraded wraps err as a DegradedError for stage. A nil err returns nil.
func Degraded(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &DegradedError{Stage: stage, Err: err}
}

// IsDegraded reports whether err (or anything it wraps) is a DegradedError.
func IsDegraded(err error) bool {
	var d *DegradedError
	return errors.As(err, &d)
}
