// Package grammar defines recursive grammars over pipeline operators. A
// grammar is a rule table whose right-hand sides compose operators,
// choices and references to other rules (nonterminals). Unfold expands
// every derivation up to a depth bound into a planned operator with the
// choices preserved; Sample draws one random derivation, producing a
// concrete trainable operator.
package grammar

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/braidml/braid/pkg/operators"
	"github.com/braidml/braid/pkg/ops"
)

// StartRule is the rule every derivation begins from.
const StartRule = "start"

var (
	ErrNoStartRule = errors.New("rule start must be defined")
	ErrUnknownRule = errors.New("rule is not defined")
)

// NonTerminal is a planned operator referencing a grammar rule by name.
type NonTerminal struct {
	name string
}

func (n *NonTerminal) Name() string { return n.name }

// CloneOperator lets nonterminals take part in operators.Clone.
func (n *NonTerminal) CloneOperator() operators.Operator {
	return &NonTerminal{name: n.name}
}

// Grammar is a table of named rules.
type Grammar struct {
	rules map[string]operators.Operator
}

func New() *Grammar {
	return &Grammar{rules: make(map[string]operators.Operator)}
}

// Rule returns a nonterminal reference to the named rule. The rule does
// not have to be defined yet; recursive grammars reference rules before
// binding them.
func (g *Grammar) Rule(name string) *NonTerminal {
	return &NonTerminal{name: name}
}

// Define binds a rule name to its right-hand side.
func (g *Grammar) Define(name string, op operators.Operator) {
	g.rules[name] = op
}

// Unfold expands every derivation from the start rule up to depth n into a
// planned operator, preserving choices. Branches whose nonterminals run
// out of depth drop out; an unfold with nothing left yields the no-op
// operator.
func (g *Grammar) Unfold(n int) (operators.Operator, error) {
	start, ok := g.rules[StartRule]
	if !ok {
		return nil, ErrNoStartRule
	}

	op, err := g.unfold(start, n)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return ops.NoOp(), nil
	}

	return op, nil
}

func (g *Grammar) unfold(op operators.Operator, n int) (operators.Operator, error) {
	switch v := op.(type) {
	case *operators.Pipeline:
		return g.rebuild(v, func(step operators.Operator) (operators.Operator, error) {
			return g.unfold(step, n)
		})
	case *operators.Choice:
		var kept []operators.Operator
		for _, alt := range v.Alternatives() {
			expanded, err := g.unfold(alt, n)
			if err != nil {
				return nil, err
			}
			if expanded != nil {
				kept = append(kept, expanded)
			}
		}
		if len(kept) == 0 {
			return nil, nil
		}
		if len(kept) == 1 {
			return kept[0], nil
		}

		return operators.MakeChoice(kept...)
	case *NonTerminal:
		if n <= 0 {
			return nil, nil
		}
		rule, ok := g.rules[v.name]
		if !ok {
			return nil, errors.Wrap(ErrUnknownRule, v.name)
		}

		return g.unfold(rule, n-1)
	}

	// individual ops and other leaves expand to themselves
	return op, nil
}

// Sample draws one random derivation from the start rule, resolving every
// choice with rng and bounding nonterminal recursion at depth n.
func (g *Grammar) Sample(rng *rand.Rand, n int) (operators.Operator, error) {
	start, ok := g.rules[StartRule]
	if !ok {
		return nil, ErrNoStartRule
	}

	op, err := g.sample(rng, start, n)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return ops.NoOp(), nil
	}

	return op, nil
}

func (g *Grammar) sample(rng *rand.Rand, op operators.Operator, n int) (operators.Operator, error) {
	switch v := op.(type) {
	case *operators.Pipeline:
		return g.rebuild(v, func(step operators.Operator) (operators.Operator, error) {
			return g.sample(rng, step, n)
		})
	case *operators.Choice:
		alternatives := v.Alternatives()

		return g.sample(rng, alternatives[rng.Intn(len(alternatives))], n)
	case *NonTerminal:
		if n <= 0 {
			return nil, nil
		}
		rule, ok := g.rules[v.name]
		if !ok {
			return nil, errors.Wrap(ErrUnknownRule, v.name)
		}

		return g.sample(rng, rule, n-1)
	}

	return operators.Clone(op), nil
}

// rebuild derives a new pipeline by mapping every step through derive and
// translating the edges through the step map. A nil derivation for any
// step prunes the whole pipeline.
func (g *Grammar) rebuild(p *operators.Pipeline, derive func(operators.Operator) (operators.Operator, error)) (operators.Operator, error) {
	steps := p.Steps()
	stepMap := make(map[string]operators.Operator, len(steps))
	newSteps := make([]operators.Operator, 0, len(steps))
	for _, step := range steps {
		derived, err := derive(step)
		if err != nil {
			return nil, err
		}
		if derived == nil {
			return nil, nil
		}
		stepMap[step.Name()] = derived
		newSteps = append(newSteps, derived)
	}

	edges := make([]operators.Edge, 0, len(p.Edges()))
	for _, edge := range p.Edges() {
		edges = append(edges, operators.Edge{
			Source: stepMap[edge.Source].Name(),
			Target: stepMap[edge.Target].Name(),
		})
	}

	return operators.NewDAG(newSteps, edges)
}
