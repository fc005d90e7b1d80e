package grammar

import (
	"fmt"
	"sort"

	"github.com/pedroscocco/linux-sac-bot/internal/models"
)

// Wildcard is the rule origin matching any current state.
const Wildcard = "*"

// Rule is a single allowed edge in the menu: receiving Label while at From
// moves the conversation to To. From may be Wildcard.
type Rule struct {
	Label string `yaml:"label"`
	From  string `yaml:"from"`
	To    string `yaml:"to"`
}

// Config is the static description a Grammar is built from.
type Config struct {
	Initial    string            `yaml:"initial"`
	Fallback   string            `yaml:"fallback"`
	Rules      []Rule            `yaml:"rules"`
	Content    map[string]string `yaml:"content"`
	Intercepts map[string]string `yaml:"intercepts"`
}

type transitionKey struct {
	from  string
	label string
}

// Grammar is an immutable transition table plus per-state content. Built
// once at startup and shared across concurrent sessions without locking.
type Grammar struct {
	initial    string
	fallback   string
	rules      []Rule
	content    map[string]string
	intercepts map[string]string
	concrete   map[transitionKey]string
	wildcard   map[string]string
}

const defaultFallback = "Desculpe, não entendi. Essas são as opções disponíveis:"

// New validates cfg and precomputes the lookup tables. Any violation is a
// configuration error that must abort startup, never surface to a user.
func New(cfg Config) (*Grammar, error) {
	if cfg.Initial == "" {
		return nil, fmt.Errorf("grammar: initial state is required")
	}
	if _, ok := cfg.Content[cfg.Initial]; !ok {
		return nil, fmt.Errorf("grammar: initial state %q has no content", cfg.Initial)
	}

	g := &Grammar{
		initial:    cfg.Initial,
		fallback:   cfg.Fallback,
		rules:      make([]Rule, len(cfg.Rules)),
		content:    make(map[string]string, len(cfg.Content)),
		intercepts: make(map[string]string, len(cfg.Intercepts)),
		concrete:   make(map[transitionKey]string),
		wildcard:   make(map[string]string),
	}
	if g.fallback == "" {
		g.fallback = defaultFallback
	}
	copy(g.rules, cfg.Rules)
	for state, text := range cfg.Content {
		g.content[state] = text
	}
	for token, text := range cfg.Intercepts {
		g.intercepts[token] = text
	}

	for i, r := range cfg.Rules {
		if r.Label == "" || r.From == "" || r.To == "" {
			return nil, fmt.Errorf("grammar: rule %d is incomplete: %+v", i, r)
		}
		if _, ok := cfg.Content[r.To]; !ok {
			return nil, fmt.Errorf("grammar: rule %q -> %q points to a state with no content", r.Label, r.To)
		}
		if r.From == Wildcard {
			if _, dup := g.wildcard[r.Label]; dup {
				return nil, fmt.Errorf("grammar: duplicate wildcard rule for label %q", r.Label)
			}
			g.wildcard[r.Label] = r.To
			continue
		}
		key := transitionKey{from: r.From, label: r.Label}
		if _, dup := g.concrete[key]; dup {
			return nil, fmt.Errorf("grammar: duplicate rule for label %q from state %q", r.Label, r.From)
		}
		g.concrete[key] = r.To
	}

	return g, nil
}

// Initial returns the state new users start in.
func (g *Grammar) Initial() string {
	return g.initial
}

// Fallback returns the text shown when no rule matches an input.
func (g *Grammar) Fallback() string {
	return g.fallback
}

// Intercept looks up a special-case token handled outside the transition
// table (diagnostic commands, easter eggs).
func (g *Grammar) Intercept(token string) (string, bool) {
	text, ok := g.intercepts[token]
	return text, ok
}

// Resolve returns the destination for input label from the given state.
// A concrete rule takes precedence; a wildcard rule is a fallback, never an
// override. Side-effect free.
func (g *Grammar) Resolve(state, label string) (string, bool) {
	if to, ok := g.concrete[transitionKey{from: state, label: label}]; ok {
		return to, true
	}
	if to, ok := g.wildcard[label]; ok {
		return to, true
	}
	return "", false
}

// AvailableTransitions returns the input labels valid from state, in
// declaration order: concrete rules for the state first, then wildcard
// rules. Labels shadowed by a concrete rule are not repeated, and a
// wildcard leading back to the state itself is not offered.
func (g *Grammar) AvailableTransitions(state string) []string {
	var labels []string
	seen := make(map[string]bool)
	for _, r := range g.rules {
		if r.From != state || seen[r.Label] {
			continue
		}
		seen[r.Label] = true
		labels = append(labels, r.Label)
	}
	for _, r := range g.rules {
		if r.From != Wildcard || seen[r.Label] || r.To == state {
			continue
		}
		seen[r.Label] = true
		labels = append(labels, r.Label)
	}
	return labels
}

// ContentFor returns the text shown upon arrival at state.
func (g *Grammar) ContentFor(state string) (string, error) {
	text, ok := g.content[state]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownState, state)
	}
	return text, nil
}

// Rules returns a copy of the declared transition rules.
func (g *Grammar) Rules() []Rule {
	out := make([]Rule, len(g.rules))
	copy(out, g.rules)
	return out
}

// States returns every state with content, sorted for stable output.
func (g *Grammar) States() []string {
	states := make([]string, 0, len(g.content))
	for s := range g.content {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}
