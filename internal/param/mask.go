package param

// Mask tracks per-row validity within the current block. A row goes invalid
// when a kernel hits a recoverable numeric failure on it, or when it lies
// past the valid-row count of a partial final block. Invalid rows stay in
// the block (the shape is fixed) but carry sentinel values and must be
// ignored by sinks.
type Mask struct {
	valid []bool
}

// NewMask returns a mask sized for one block of rows, all rows invalid
// until the first Reset.
func NewMask(rows int) *Mask {
	return &Mask{valid: make([]bool, rows)}
}

// Reset marks rows [0, validRows) valid and the rest invalid. Called by the
// executor after each fill.
func (m *Mask) Reset(validRows int) {
	for i := range m.valid {
		m.valid[i] = i < validRows
	}
}

// Invalidate marks row r invalid for the rest of the block.
func (m *Mask) Invalidate(r int) { m.valid[r] = false }

// Valid reports whether row r is still valid.
func (m *Mask) Valid(r int) bool { return m.valid[r] }

// Rows returns the block row dimension.
func (m *Mask) Rows() int { return len(m.valid) }

// CountValid returns the number of valid rows among the first n.
func (m *Mask) CountValid(n int) int {
	c := 0
	for i := 0; i < n; i++ {
		if m.valid[i] {
			c++
		}
	}
	return c
}
