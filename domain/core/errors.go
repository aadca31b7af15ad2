package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrTooFewColumns    = fmt.Errorf("%w: at least two columns are required", ErrInvalidInput)
	ErrTooFewRows       = fmt.Errorf("%w: at least two rows are required", ErrInvalidInput)
	ErrDegenerateFactor = fmt.Errorf("%w: categorical factor needs at least two levels", ErrInvalidInput)

	// Numerical errors
	ErrSingularMatrix = errors.New("singular correlation matrix")
	ErrZeroVariance   = fmt.Errorf("%w: zero variance column", ErrSingularMatrix)
)

// Error constructors with context
func NewInvalidInputError(column string, reason string) error {
	if column == "" {
		return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
	}
	return fmt.Errorf("%w: column %q: %s", ErrInvalidInput, column, reason)
}

func NewDegenerateFactorError(column string, levels int) error {
	return fmt.Errorf("%w: column %q has %d distinct non-missing levels", ErrDegenerateFactor, column, levels)
}

// NewSingularMatrixError reports an ill-conditioned block; rcond is its
// reciprocal condition number (1/GVIF for the X1,X2 ratio).
func NewSingularMatrixError(column, block string, rcond float64) error {
	return fmt.Errorf("%w: factor %q: corr(%s) is ill-conditioned (rcond = %g)", ErrSingularMatrix, column, block, rcond)
}

func NewZeroVarianceError(column string) error {
	return fmt.Errorf("%w: %q", ErrZeroVariance, column)
}

// Error checking helpers
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsSingularMatrix(err error) bool {
	return errors.Is(err, ErrSingularMatrix)
}
