package processor

import (
	"fmt"

	"github.com/patgo25/pygama/internal/param"
)

// Broadcast returns the shape an elementwise binary operation produces from
// two input shapes. The rules are deliberately narrow:
//
//   - scalar with anything yields the other shape
//   - fixed arrays of equal width yield that width
//   - variable-length arrays combine only with an identical variable-length
//     shape (same capacity and lengths parameter) or a scalar
//
// Anything else is a shape mismatch, reported at build time.
func Broadcast(a, b param.Shape) (param.Shape, error) {
	if a.IsScalar() {
		return b, nil
	}
	if b.IsScalar() {
		return a, nil
	}
	if a.Kind == param.KindVarArray || b.Kind == param.KindVarArray {
		if a.Equal(b) {
			return a, nil
		}
		return param.Shape{}, fmt.Errorf("cannot broadcast %s with %s", a, b)
	}
	if a.Width == b.Width {
		return a, nil
	}
	return param.Shape{}, fmt.Errorf("cannot broadcast %s with %s", a, b)
}
