// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "strings"

// FailureKind classifies an upstream converter failure.
type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureAuth
	FailureQuota
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth"
	case FailureQuota:
		return "quota"
	default:
		return "generic"
	}
}

// Hint is the user-facing line added below the error text.
func (k FailureKind) Hint() string {
	switch k {
	case FailureAuth:
		return "The captioning API key was rejected. Retrying with standard conversion."
	case FailureQuota:
		return "The captioning API usage limit was reached. Retrying with standard conversion."
	default:
		return "Retrying with standard conversion."
	}
}

// Classify sorts err by its message. Converters run out of process, so the
// message text is all there is to go on.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureGeneric
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "AuthenticationError"), strings.Contains(msg, "API key"):
		return FailureAuth
	case strings.Contains(msg, "RateLimitError"), strings.Contains(msg, "insufficient_quota"), strings.Contains(msg, "quota"):
		return FailureQuota
	}
	return FailureGeneric
}
