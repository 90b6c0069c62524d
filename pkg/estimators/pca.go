package estimators

import (
	"math"

	"github.com/pkg/errors"
)

const (
	powerIterations = 200
	powerTolerance  = 1e-9
)

// PCA projects the data onto its leading principal components. The
// components are extracted one by one with power iteration and deflation of
// the covariance matrix.
type PCA struct {
	NComponents int

	mean       Vector
	components Matrix // one row per component
	fitted     bool
}

func NewPCA(nComponents int) *PCA {
	return &PCA{NComponents: nComponents}
}

func (p *PCA) Params() map[string]any {
	return map[string]any{"n_components": p.NComponents}
}

func (p *PCA) SetParams(params map[string]any) error {
	if err := unknownParams(params, "n_components"); err != nil {
		return err
	}
	if value, ok := params["n_components"]; ok {
		n, err := asInt("n_components", value)
		if err != nil {
			return err
		}
		p.NComponents = n
	}

	return nil
}

func (p *PCA) Fit(x Matrix, _ Vector) error {
	if err := checkMatrix(x); err != nil {
		return errors.Wrap(err, "unable to fit pca")
	}

	cols := x.Cols()
	if p.NComponents < 1 || p.NComponents > cols {
		return errors.Wrapf(ErrParamType, "n_components must be in [1, %d], got %d", cols, p.NComponents)
	}

	p.mean = make(Vector, cols)
	for j := 0; j < cols; j++ {
		for _, row := range x {
			p.mean[j] += row[j]
		}
		p.mean[j] /= float64(len(x))
	}

	cov := p.covariance(x)
	p.components = make(Matrix, 0, p.NComponents)
	for k := 0; k < p.NComponents; k++ {
		comp, eigen := dominantEigenvector(cov)
		p.components = append(p.components, comp)
		deflate(cov, comp, eigen)
	}
	p.fitted = true

	return nil
}

func (p *PCA) covariance(x Matrix) Matrix {
	cols := x.Cols()
	cov := make(Matrix, cols)
	for i := range cov {
		cov[i] = make(Vector, cols)
	}
	for _, row := range x {
		for i := 0; i < cols; i++ {
			di := row[i] - p.mean[i]
			for j := i; j < cols; j++ {
				cov[i][j] += di * (row[j] - p.mean[j])
			}
		}
	}
	norm := float64(len(x) - 1)
	if norm == 0 {
		norm = 1
	}
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			cov[i][j] /= norm
			cov[j][i] = cov[i][j]
		}
	}

	return cov
}

func dominantEigenvector(cov Matrix) (Vector, float64) {
	dim := len(cov)
	vec := make(Vector, dim)
	// deterministic start, slightly asymmetric so it is never orthogonal
	// to the dominant direction by construction
	for i := range vec {
		vec[i] = 1 + float64(i)/float64(dim)
	}
	normalise(vec)

	eigen := 0.0
	for iter := 0; iter < powerIterations; iter++ {
		next := make(Vector, dim)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				next[i] += cov[i][j] * vec[j]
			}
		}
		prev := eigen
		eigen = normalise(next)
		vec = next
		if math.Abs(eigen-prev) < powerTolerance {
			break
		}
	}

	return vec, eigen
}

func deflate(cov Matrix, comp Vector, eigen float64) {
	for i := range cov {
		for j := range cov[i] {
			cov[i][j] -= eigen * comp[i] * comp[j]
		}
	}
}

func normalise(v Vector) float64 {
	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return 0
	}
	for i := range v {
		v[i] /= norm
	}

	return norm
}

func (p *PCA) Transform(x Matrix) (Matrix, error) {
	if !p.fitted {
		return nil, errors.Wrap(ErrNotFitted, "pca")
	}
	if err := checkMatrix(x); err != nil {
		return nil, err
	}
	if x.Cols() != len(p.mean) {
		return nil, errors.Wrapf(ErrColumnMismatch, "%d columns, fitted with %d", x.Cols(), len(p.mean))
	}

	out := make(Matrix, len(x))
	for i, row := range x {
		proj := make(Vector, len(p.components))
		for k, comp := range p.components {
			for j, v := range row {
				proj[k] += (v - p.mean[j]) * comp[j]
			}
		}
		out[i] = proj
	}

	return out, nil
}

func (p *PCA) Fitted() bool { return p.fitted }

func (p *PCA) Clone() Estimator {
	return &PCA{NComponents: p.NComponents}
}

// Components returns the fitted principal components, one row each.
func (p *PCA) Components() Matrix { return p.components }
