package fusion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultCCAComponents is the shared-space dimensionality used by the
// offline pipeline.
const DefaultCCAComponents = 128

// CCA learns linear projections of two views that maximize the
// correlation between the projected views (canonical correlation
// analysis). The classic whitening formulation: whiten each view's
// covariance, SVD the whitened cross-covariance, and map the singular
// vectors back through the whitening transforms.
type CCA struct {
	Components int
	// Reg is a ridge term added to the covariance diagonals; keeps
	// the whitening stable when dimensions outnumber samples.
	Reg float64

	fitted bool
	meanX  []float64
	meanY  []float64
	wx     *mat.Dense // dx x k
	wy     *mat.Dense // dy x k
}

// NewCCA creates a CCA model with the given shared-space dimension.
func NewCCA(components int) *CCA {
	return &CCA{Components: components, Reg: 1e-4}
}

// Fit learns the projection matrices from aligned training views.
// Rows of text and node must correspond to the same papers in the
// same order (use Align first).
func (c *CCA) Fit(text, node *mat.Dense) error {
	n, dx := text.Dims()
	ny, dy := node.Dims()
	if n != ny {
		return fmt.Errorf("%w: %d text rows, %d node rows", ErrShape, n, ny)
	}
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrShape, n)
	}
	if c.Components <= 0 {
		return fmt.Errorf("fusion: components = %d", c.Components)
	}

	xc, meanX := centered(text)
	yc, meanY := centered(node)

	scale := 1 / float64(n-1)

	var sxx, syy, sxy mat.Dense
	sxx.Mul(xc.T(), xc)
	sxx.Scale(scale, &sxx)
	syy.Mul(yc.T(), yc)
	syy.Scale(scale, &syy)
	sxy.Mul(xc.T(), yc)
	sxy.Scale(scale, &sxy)

	addRidge(&sxx, c.Reg)
	addRidge(&syy, c.Reg)

	sxxInvSqrt, err := invSqrtSym(&sxx)
	if err != nil {
		return fmt.Errorf("whitening text covariance: %w", err)
	}
	syyInvSqrt, err := invSqrtSym(&syy)
	if err != nil {
		return fmt.Errorf("whitening node covariance: %w", err)
	}

	var m mat.Dense
	m.Mul(sxxInvSqrt, &sxy)
	m.Mul(&m, syyInvSqrt)

	var svd mat.SVD
	if !svd.Factorize(&m, mat.SVDThin) {
		return fmt.Errorf("fusion: SVD of whitened cross-covariance failed to converge")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	_, rank := u.Dims()
	k := c.Components
	if k > rank {
		k = rank
	}

	var wx, wy mat.Dense
	wx.Mul(sxxInvSqrt, u.Slice(0, dx, 0, k))
	wy.Mul(syyInvSqrt, v.Slice(0, dy, 0, k))

	c.meanX = meanX
	c.meanY = meanY
	c.wx = &wx
	c.wy = &wy
	c.fitted = true
	return nil
}

// Transform projects both views into the learned shared space.
func (c *CCA) Transform(text, node *mat.Dense) (*mat.Dense, *mat.Dense, error) {
	if !c.fitted {
		return nil, nil, ErrNotFitted
	}
	_, dx := text.Dims()
	_, dy := node.Dims()
	if dx != len(c.meanX) {
		return nil, nil, fmt.Errorf("%w: text dim %d, model expects %d", ErrShape, dx, len(c.meanX))
	}
	if dy != len(c.meanY) {
		return nil, nil, fmt.Errorf("%w: node dim %d, model expects %d", ErrShape, dy, len(c.meanY))
	}

	var textProj, nodeProj mat.Dense
	textProj.Mul(centeredBy(text, c.meanX), c.wx)
	nodeProj.Mul(centeredBy(node, c.meanY), c.wy)
	return &textProj, &nodeProj, nil
}

// OutputDim returns the shared-space dimensionality of a fitted model.
func (c *CCA) OutputDim() (int, error) {
	if !c.fitted {
		return 0, ErrNotFitted
	}
	_, k := c.wx.Dims()
	return k, nil
}

// centered returns a mean-centered copy of m and the column means.
func centered(m *mat.Dense) (*mat.Dense, []float64) {
	rows, cols := m.Dims()
	means := make([]float64, cols)
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += m.At(i, j)
		}
		means[j] = sum / float64(rows)
	}
	return centeredBy(m, means), means
}

func centeredBy(m *mat.Dense, means []float64) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(i, j)-means[j])
		}
	}
	return out
}

func addRidge(m *mat.Dense, reg float64) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, i, m.At(i, i)+reg)
	}
}

// invSqrtSym computes S^(-1/2) for a symmetric positive-definite
// matrix via its eigendecomposition.
func invSqrtSym(s *mat.Dense) (*mat.Dense, error) {
	n, cols := s.Dims()
	if n != cols {
		return nil, fmt.Errorf("%w: %dx%d is not square", ErrShape, n, cols)
	}

	// Symmetrize: numerical noise from the Mul can leave tiny
	// asymmetries that EigenSym rejects.
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (s.At(i, j)+s.At(j, i))/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, fmt.Errorf("fusion: eigendecomposition failed to converge")
	}
	vals := eig.Values(nil)
	var q mat.Dense
	eig.VectorsTo(&q)

	const eps = 1e-12
	d := mat.NewDiagDense(n, nil)
	for i, v := range vals {
		if v < eps {
			v = eps
		}
		d.SetDiag(i, 1/math.Sqrt(v))
	}

	var tmp, out mat.Dense
	tmp.Mul(&q, d)
	out.Mul(&tmp, q.T())
	return &out, nil
}
