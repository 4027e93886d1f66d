// Package service implements the conversational orchestration core: the
// driver loop, result accumulation, and response ranking.
package service

import (
	"fmt"
)

// ValidationError reports bad caller input. Requests failing validation are
// rejected before any model call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MaxIterationsError reports that the conversation loop reached its ceiling
// without the model producing a terminal answer.
type MaxIterationsError struct {
	Limit int
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("conversation exceeded %d iterations without a final answer", e.Limit)
}
