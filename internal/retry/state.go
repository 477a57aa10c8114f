package retry

import (
	"fmt"

	"github.com/wonny/sgxsync/internal/contracts"
)

// State is the lifecycle of one candidate URL
type State int

const (
	StatePending State = iota
	StateAttempting
	StateSucceeded
	StateRetrying
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateRetrying:
		return "retrying"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports states that end work on a candidate
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhausted
}

type transitionKey struct {
	status     contracts.Status
	budgetLeft bool
}

// ⭐ SSOT: 재시도 정책은 이 전이 테이블에서만
//
// NotFound is definitive for a URL: never retried, the controller moves on.
// TransportError and Empty are transient and retried until the budget runs out.
var transitions = map[transitionKey]State{
	{contracts.StatusSuccess, true}:         StateSucceeded,
	{contracts.StatusSuccess, false}:        StateSucceeded,
	{contracts.StatusTransportError, true}:  StateRetrying,
	{contracts.StatusTransportError, false}: StateExhausted,
	{contracts.StatusEmpty, true}:           StateRetrying,
	{contracts.StatusEmpty, false}:          StateExhausted,
	{contracts.StatusNotFound, true}:        StateExhausted,
	{contracts.StatusNotFound, false}:       StateExhausted,
}

// next returns the state after an attempt. Unknown outcomes end the candidate.
func next(status contracts.Status, budgetLeft bool) State {
	if s, ok := transitions[transitionKey{status, budgetLeft}]; ok {
		return s
	}
	return StateExhausted
}
