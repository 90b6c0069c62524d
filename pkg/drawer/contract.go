// Package drawer renders operator graphs as Graphviz DOT: one vertex per
// step, filled with a colour for its lifecycle state, with optional fit
// duration labels and heat-coloured steps when a measure is attached.
package drawer

import (
	"io"

	"github.com/braidml/braid/pkg/operators"
)

// Drawer renders an operator graph to a writer.
type Drawer interface {
	Draw(op operators.Operator, wrt io.Writer) error
}
