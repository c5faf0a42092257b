package searchspec

import (
	"github.com/samber/lo"
	"golang.org/x/exp/constraints"
)

// Abs returns the absolute value of v. The minimum value of T, which has no
// positive counterpart, maps to the maximum.
func Abs[T constraints.Signed](v T) T {
	if v >= 0 {
		return v
	}
	if -v < 0 {
		return -(v + 1)
	}
	return -v
}

// PtrAs converts a pointer to a different integer type.
func PtrAs[From, To constraints.Integer](v *From) *To {
	if v == nil {
		return nil
	}
	return lo.ToPtr(To(*v))
}
