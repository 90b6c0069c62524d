package operators

// Clone returns a structural copy of any operator with trained state
// discarded: trained forms collapse to their trainable counterparts while
// the configuration (names, edges, hyperparameters) is preserved.
func Clone(op Operator) Operator {
	switch v := op.(type) {
	case *IndividualOp:
		return v.clone()
	case *TrainedIndividualOp:
		return v.Clone()
	case *Pipeline:
		return v.clonePipeline()
	case *TrainedPipeline:
		return v.Clone()
	case *Choice:
		alternatives := make([]Operator, len(v.alternatives))
		for i, alt := range v.alternatives {
			alternatives[i] = Clone(alt)
		}

		return &Choice{name: v.name, alternatives: alternatives}
	}

	if cloner, ok := op.(Cloner); ok {
		return cloner.CloneOperator()
	}

	return op
}
