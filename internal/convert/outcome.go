// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "fmt"

// OutcomeKind records which path produced a document's Markdown.
type OutcomeKind int

const (
	// OutcomeStandard means captioning was never attempted.
	OutcomeStandard OutcomeKind = iota

	// OutcomeDescribed means the captioning converter produced the Markdown.
	OutcomeDescribed

	// OutcomeFellThrough means captioning was attempted and failed, and the
	// standard converter was used instead.
	OutcomeFellThrough
)

// Outcome is the result of planning the captioning path.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Described is the outcome of a successful captioning run.
func Described() Outcome { return Outcome{Kind: OutcomeDescribed} }

// FellThrough is the outcome of a failed captioning run.
func FellThrough(reason string) Outcome { return Outcome{Kind: OutcomeFellThrough, Reason: reason} }

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeDescribed:
		return "described"
	case OutcomeFellThrough:
		return "fell-through: " + o.Reason
	default:
		return "standard"
	}
}

// Notice is the line prepended to the Markdown, or "" for none.
func (o Outcome) Notice() string {
	switch o.Kind {
	case OutcomeDescribed:
		return "Image description generated by the captioning model.\n\n"
	case OutcomeFellThrough:
		return fmt.Sprintf("Image captioning unavailable (%s). Used standard conversion.\n\n", o.Reason)
	default:
		return ""
	}
}
