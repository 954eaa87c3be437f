// Package viewstate models the load lifecycle shared by the portal views:
// idle, loading, then loaded or error. An errored view may still carry
// fallback data from an earlier load.
package viewstate

import "github.com/angelmondragon/residence-portal/pkg/enums"

// State is the state of one view slice.
type State[T any] struct {
	Status   enums.ViewStatus `json:"status"`
	Data     T                `json:"data"`
	Error    string           `json:"error,omitempty"`
	Fallback bool             `json:"fallback,omitempty"`
}

// New returns an idle state.
func New[T any]() *State[T] {
	return &State[T]{Status: enums.ViewStatusIdle}
}

// Begin moves the view into loading. Refresh is explicit, so a loaded or
// errored view may begin again.
func (s *State[T]) Begin() {
	s.Status = enums.ViewStatusLoading
	s.Error = ""
	s.Fallback = false
}

// Succeed stores fresh data.
func (s *State[T]) Succeed(data T) {
	s.Status = enums.ViewStatusLoaded
	s.Data = data
	s.Error = ""
	s.Fallback = false
}

// Fail records the failure. Prior data, if any, stays in place and is
// flagged as fallback.
func (s *State[T]) Fail(message string) {
	s.Status = enums.ViewStatusError
	s.Error = message
}

// FailWith records the failure and substitutes fallback data.
func (s *State[T]) FailWith(message string, fallback T) {
	s.Fail(message)
	s.Data = fallback
	s.Fallback = true
}

// Failed reports whether the last load failed.
func (s *State[T]) Failed() bool {
	return s.Status == enums.ViewStatusError
}
