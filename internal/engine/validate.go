package engine

import (
	"errors"
	"fmt"
	"math"

	"PegSim/internal/model"
)

// ErrInvariantViolation is matched by every *InvariantError.
var ErrInvariantViolation = errors.New("invariant violation")

// InvariantError names the step and field that went negative.
type InvariantError struct {
	Step  int
	Field string
	Value float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at step %d: %s = %g", e.Step, e.Field, e.Value)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariantViolation }

// Validate checks the non-negativity invariants of a snapshot. NaN counts
// as a violation.
func Validate(s model.Snapshot) error {
	checks := []struct {
		field string
		value float64
	}{
		{"reserve_quantity", s.ReserveQuantity},
		{"stable_circulation", s.StableCirculation},
		{"bond_circulation", s.BondCirculation},
		{"reserve_price", s.ReservePrice},
	}
	for _, c := range checks {
		if c.value < 0 || math.IsNaN(c.value) {
			return &InvariantError{Step: s.Step, Field: c.field, Value: c.value}
		}
	}
	return nil
}
