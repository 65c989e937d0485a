// Package matrix wraps the sparse LU solver behind the small stamping API
// the nodal-analysis fallback needs. DC only, so everything is real valued.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// System is one modified-nodal-analysis equation system: node equations
// 1..numNodes followed by one branch equation per voltage source. Indexing
// is 1-based; index 0 is ground and stamps against it are dropped.
type System struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	config   *sparse.Configuration
}

func NewSystem(size int) (*System, error) {
	config := &sparse.Configuration{
		Real:           true,
		Complex:        false,
		Expandable:     true,
		Translate:      false,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
		Annotate:       0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}

	return &System{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size+1), // 1-based
		solution: make([]float64, size+1),
		config:   config,
	}, nil
}

// Stamp accumulates into A[i][j]. Ground (index 0) and out-of-range
// indices are ignored.
func (m *System) Stamp(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

// StampConductance adds conductance g between nodes n1 and n2.
func (m *System) StampConductance(n1, n2 int, g float64) {
	m.Stamp(n1, n1, g)
	m.Stamp(n2, n2, g)
	m.Stamp(n1, n2, -g)
	m.Stamp(n2, n1, -g)
}

// AddRHS accumulates into the right-hand side.
func (m *System) AddRHS(i int, value float64) {
	if i <= 0 || i > m.Size {
		return
	}
	m.rhs[i] += value
}

func (m *System) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

// Solve factors and solves the system. The solution stays 1-based.
func (m *System) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %v", err)
	}

	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %v", err)
	}
	m.solution = solution
	return nil
}

func (m *System) Solution() []float64 {
	return m.solution
}

func (m *System) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
