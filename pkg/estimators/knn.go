package estimators

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// KNNClassifier predicts the majority class among the k nearest training
// rows by Euclidean distance. Fit only stores the training set.
type KNNClassifier struct {
	K int

	trainX Matrix
	trainY Vector
	fitted bool
}

func NewKNNClassifier() *KNNClassifier {
	return &KNNClassifier{K: 3}
}

func (k *KNNClassifier) Params() map[string]any {
	return map[string]any{"k": k.K}
}

func (k *KNNClassifier) SetParams(params map[string]any) error {
	if err := unknownParams(params, "k"); err != nil {
		return err
	}
	if value, ok := params["k"]; ok {
		n, err := asInt("k", value)
		if err != nil {
			return err
		}
		k.K = n
	}

	return nil
}

func (k *KNNClassifier) Fit(x Matrix, y Vector) error {
	if err := checkFitInput(x, y); err != nil {
		return errors.Wrap(err, "unable to fit knn classifier")
	}
	if y == nil {
		return errors.Wrap(ErrLengthMismatch, "knn classifier requires targets")
	}
	if k.K < 1 {
		return errors.Wrapf(ErrParamType, "k must be at least 1, got %d", k.K)
	}
	if k.K > len(x) {
		return errors.Wrapf(ErrNotEnoughSamples, "k=%d with %d training rows", k.K, len(x))
	}

	k.trainX = x.Clone()
	k.trainY = append(Vector(nil), y...)
	k.fitted = true

	return nil
}

func (k *KNNClassifier) Predict(x Matrix) (Vector, error) {
	if !k.fitted {
		return nil, errors.Wrap(ErrNotFitted, "knn classifier")
	}
	if err := checkMatrix(x); err != nil {
		return nil, err
	}
	if x.Cols() != k.trainX.Cols() {
		return nil, errors.Wrapf(ErrColumnMismatch, "%d columns, fitted with %d", x.Cols(), k.trainX.Cols())
	}

	out := make(Vector, len(x))
	for i, row := range x {
		out[i] = k.vote(row)
	}

	return out, nil
}

type neighbour struct {
	dist  float64
	label float64
}

func (k *KNNClassifier) vote(row Vector) float64 {
	neighbours := make([]neighbour, len(k.trainX))
	for i, train := range k.trainX {
		sum := 0.0
		for j, v := range train {
			d := row[j] - v
			sum += d * d
		}
		neighbours[i] = neighbour{dist: math.Sqrt(sum), label: k.trainY[i]}
	}
	sort.Slice(neighbours, func(i, j int) bool {
		return neighbours[i].dist < neighbours[j].dist
	})

	votes := make(map[float64]int)
	for _, n := range neighbours[:k.K] {
		votes[n.label]++
	}

	best := neighbours[0].label
	bestCount := 0
	for label, count := range votes {
		if count > bestCount || (count == bestCount && label < best) {
			best = label
			bestCount = count
		}
	}

	return best
}

func (k *KNNClassifier) Fitted() bool { return k.fitted }

func (k *KNNClassifier) Clone() Estimator {
	return &KNNClassifier{K: k.K}
}
