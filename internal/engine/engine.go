package engine

import (
	"github.com/pedroscocco/linux-sac-bot/internal/grammar"
)

// Decision is the outcome of evaluating one input against the current
// conversation state. When Transitioned is false NextState always equals
// the state the decision was made from.
type Decision struct {
	NextState    string
	Content      string
	Transitioned bool
	Intercepted  bool
	Options      []string
}

// Engine computes conversation transitions. It is a pure function of
// (state, input, grammar): it never touches the store or the transport,
// so the transition table and the recovery policy are testable without I/O.
type Engine struct {
	grammar *grammar.Grammar
}

// New creates an engine over a validated grammar.
func New(g *grammar.Grammar) *Engine {
	return &Engine{grammar: g}
}

// Decide evaluates input from currentState.
//
// Intercept tokens (diagnostic commands, easter eggs) are answered without
// consulting the transition table and never change state. Otherwise a
// matching rule moves the conversation and selects the destination's
// content; an unmatched input keeps the state and answers with the
// fallback text plus the options still valid from here.
func (e *Engine) Decide(currentState, input string) Decision {
	if reply, ok := e.grammar.Intercept(input); ok {
		return Decision{
			NextState:   currentState,
			Content:     reply,
			Intercepted: true,
			Options:     e.grammar.AvailableTransitions(currentState),
		}
	}

	next, ok := e.grammar.Resolve(currentState, input)
	if !ok {
		return Decision{
			NextState: currentState,
			Content:   e.grammar.Fallback(),
			Options:   e.grammar.AvailableTransitions(currentState),
		}
	}

	// Content coverage for every reachable state is guaranteed by grammar
	// validation at load time.
	content, _ := e.grammar.ContentFor(next)
	return Decision{
		NextState:    next,
		Content:      content,
		Transitioned: true,
		Options:      e.grammar.AvailableTransitions(next),
	}
}

// Arrival describes landing on a state without evaluating an input, as on
// first contact with a new user.
func (e *Engine) Arrival(state string) Decision {
	content, _ := e.grammar.ContentFor(state)
	return Decision{
		NextState: state,
		Content:   content,
		Options:   e.grammar.AvailableTransitions(state),
	}
}
