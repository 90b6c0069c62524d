package operators

import "strings"

// Choice is a planned-only disjunction of alternative operators. A pipeline
// containing a choice cannot fit; search resolves choices into concrete
// candidates first.
type Choice struct {
	name         string
	alternatives []Operator
}

// MakeChoice builds a choice between the given alternatives.
func MakeChoice(alternatives ...Operator) (*Choice, error) {
	if len(alternatives) == 0 {
		return nil, ErrEmptyChoice
	}

	names := make([]string, len(alternatives))
	for i, alt := range alternatives {
		if alt == nil {
			return nil, ErrStepMustBeSet
		}
		names[i] = alt.Name()
	}

	return &Choice{
		name:         "choice(" + strings.Join(names, " | ") + ")",
		alternatives: alternatives,
	}, nil
}

func (c *Choice) Name() string { return c.name }

// WithName returns a renamed copy of the choice.
func (c *Choice) WithName(name string) *Choice {
	return &Choice{name: name, alternatives: c.alternatives}
}

// Alternatives returns the alternatives in declaration order.
func (c *Choice) Alternatives() []Operator {
	return append([]Operator(nil), c.alternatives...)
}

// ContainsChoice reports whether an operator tree still holds an unresolved
// choice anywhere, which makes it planned-only.
func ContainsChoice(op Operator) bool {
	switch v := op.(type) {
	case *Choice:
		return true
	case *Pipeline:
		for _, step := range v.Steps() {
			if ContainsChoice(step) {
				return true
			}
		}
	}

	return false
}
