package estimators_test

import (
	"math/rand"
	"testing"
)

func newRand(t *testing.T) *rand.Rand {
	t.Helper()

	return rand.New(rand.NewSource(1))
}
