// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// MissingDependencyError reports that a converter cannot run because a
// capability it needs is not available. It is distinct from an ordinary
// conversion failure and is never downgraded silently.
type MissingDependencyError struct {
	Converter string
	Feature   string
	Extension string
	Err       error
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("%s recognized the input as a potential %s file, but the dependencies needed to read %s files are not available",
		e.Converter, e.Extension, e.Feature)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingDependencyError) Unwrap() error {
	return e.Err
}
