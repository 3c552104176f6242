// Copyright (c) 2026 Colin McRae

package matrix

import "fmt"

// Dense is a dense column-major matrix. Element (i,j) lives at
// data[i+j*ld], with ld >= rows the stride between columns. Column-major
// storage keeps every basis column contiguous, which is the layout the
// reduction engine's hot loops index directly through Data and LDim.
type Dense[F Scalar] struct {
	data []F
	rows int
	cols int
	ld   int
}

// NewDense returns a zeroed rows x cols matrix. Negative dimensions are an
// error; a zero dimension yields an empty matrix.
func NewDense[F Scalar](rows, cols int) (*Dense[F], error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("NewDense: illegal dimensions %d x %d", rows, cols)
	}
	return &Dense[F]{
		data: make([]F, rows*cols),
		rows: rows,
		cols: cols,
		ld:   rows,
	}, nil
}

// NewFromSlice returns a rows x cols matrix populated from input, which is
// interpreted row by row (the natural order of a written-out matrix). The
// input length must match the dimensions.
func NewFromSlice[F Scalar](input []F, rows, cols int) (*Dense[F], error) {
	if len(input) != rows*cols {
		return nil, fmt.Errorf(
			"NewFromSlice: length of input %d does not match dimensions %d x %d",
			len(input), rows, cols,
		)
	}
	m, err := NewDense[F](rows, cols)
	if err != nil {
		return nil, fmt.Errorf("NewFromSlice: %s", err.Error())
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.data[i+j*m.ld] = input[i*cols+j]
		}
	}
	return m, nil
}

// NewIdentity returns a dim x dim identity matrix.
func NewIdentity[F Scalar](dim int) (*Dense[F], error) {
	if dim < 0 {
		return nil, fmt.Errorf("NewIdentity: illegal dimension %d", dim)
	}
	m, _ := NewDense[F](dim, dim)
	for i := 0; i < dim; i++ {
		m.data[i+i*dim] = FromReal[F](1)
	}
	return m, nil
}

// Rows returns the number of rows.
func (m *Dense[F]) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Dense[F]) Cols() int { return m.cols }

// LDim returns the leading dimension (stride between columns).
func (m *Dense[F]) LDim() int { return m.ld }

// Data returns the backing slice. Element (i,j) is Data()[i+j*LDim()].
func (m *Dense[F]) Data() []F { return m.data }

// Get returns element (i,j).
func (m *Dense[F]) Get(i, j int) (F, error) {
	var z F
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return z, fmt.Errorf("Get: index (%d,%d) outside %d x %d matrix", i, j, m.rows, m.cols)
	}
	return m.data[i+j*m.ld], nil
}

// Set assigns element (i,j).
func (m *Dense[F]) Set(i, j int, v F) error {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return fmt.Errorf("Set: index (%d,%d) outside %d x %d matrix", i, j, m.rows, m.cols)
	}
	m.data[i+j*m.ld] = v
	return nil
}

// Resize re-dimensions the matrix in place to rows x cols, reusing the
// backing slice when it is large enough. The contents after a resize are
// unspecified; callers that need zeros should follow with Zero.
func (m *Dense[F]) Resize(rows, cols int) error {
	if rows < 0 || cols < 0 {
		return fmt.Errorf("Resize: illegal dimensions %d x %d", rows, cols)
	}
	if m.ld != m.rows || rows*cols > cap(m.data) {
		m.data = make([]F, rows*cols)
	} else {
		m.data = m.data[:rows*cols]
	}
	m.rows, m.cols, m.ld = rows, cols, rows
	return nil
}

// Zero sets every element to zero.
func (m *Dense[F]) Zero() {
	var z F
	for j := 0; j < m.cols; j++ {
		col := m.data[j*m.ld : j*m.ld+m.rows]
		for i := range col {
			col[i] = z
		}
	}
}

// ZeroCol sets column j to zero.
func (m *Dense[F]) ZeroCol(j int) {
	var z F
	col := m.data[j*m.ld : j*m.ld+m.rows]
	for i := range col {
		col[i] = z
	}
}

// Col returns column j as a slice sharing the backing storage.
func (m *Dense[F]) Col(j int) []F {
	return m.data[j*m.ld : j*m.ld+m.rows]
}

// ColRange returns the view of columns [j0,j1) sharing the backing
// storage. Mutations through the view mutate the parent.
func (m *Dense[F]) ColRange(j0, j1 int) (*Dense[F], error) {
	if j0 < 0 || j1 < j0 || j1 > m.cols {
		return nil, fmt.Errorf("ColRange: illegal range [%d,%d) of %d columns", j0, j1, m.cols)
	}
	if j0 == j1 {
		return &Dense[F]{rows: m.rows, cols: 0, ld: m.ld}, nil
	}
	return &Dense[F]{
		data: m.data[j0*m.ld : j0*m.ld+(j1-j0-1)*m.ld+m.rows],
		rows: m.rows,
		cols: j1 - j0,
		ld:   m.ld,
	}, nil
}

// ColSwap exchanges columns j1 and j2.
func (m *Dense[F]) ColSwap(j1, j2 int) {
	if j1 == j2 {
		return
	}
	c1 := m.Col(j1)
	c2 := m.Col(j2)
	for i := range c1 {
		c1[i], c2[i] = c2[i], c1[i]
	}
}

// DeepColSwap relocates column k to position i (i <= k), shifting columns
// i..k-1 one position to the right. This is the deep-insertion move of the
// Schnorr-Euchner LLL variants.
func (m *Dense[F]) DeepColSwap(i, k int) {
	for j := k; j > i; j-- {
		m.ColSwap(j-1, j)
	}
}

// Clone returns a deep copy with a tight leading dimension.
func (m *Dense[F]) Clone() *Dense[F] {
	c, _ := NewDense[F](m.rows, m.cols)
	for j := 0; j < m.cols; j++ {
		copy(c.Col(j), m.Col(j))
	}
	return c
}

// CopyFrom overwrites m with src, which must have the same dimensions.
func (m *Dense[F]) CopyFrom(src *Dense[F]) error {
	if m.rows != src.rows || m.cols != src.cols {
		return fmt.Errorf(
			"CopyFrom: dimension mismatch %d x %d vs %d x %d",
			m.rows, m.cols, src.rows, src.cols,
		)
	}
	for j := 0; j < m.cols; j++ {
		copy(m.Col(j), src.Col(j))
	}
	return nil
}
