package collinearity

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"gvif/domain/core"
	"gvif/domain/dataset"
)

// correlationMatrix returns the Pearson correlation of the encoded columns,
// rows being samples. A constant column has no defined correlation and is
// reported against the original column that owns it.
func correlationMatrix(m *dataset.EncodedMatrix) (*mat.SymDense, error) {
	for _, meta := range m.ColumnMeta {
		for _, d := range meta.DerivedColumns {
			constant, err := isConstant(m.Columns[d.Index])
			if err != nil {
				return nil, core.NewInvalidInputError(meta.VariableKey, err.Error())
			}
			if constant {
				return nil, core.NewZeroVarianceError(d.Name)
			}
		}
	}

	x := mat.NewDense(m.RowCount(), m.ColumnCount(), nil)
	for j, col := range m.Columns {
		x.SetCol(j, col)
	}

	corr := mat.NewSymDense(m.ColumnCount(), nil)
	stat.CorrelationMatrix(corr, x, nil)
	return corr, nil
}

func isConstant(values []float64) (bool, error) {
	lo, err := stats.Min(values)
	if err != nil {
		return false, err
	}
	hi, err := stats.Max(values)
	if err != nil {
		return false, err
	}
	return lo == hi, nil
}

// blockLogDet returns log det and the reciprocal condition number of the
// principal sub-block of corr selected by idx. A single column block is the
// 1x1 identity. ok is false when the block is not positive definite.
func blockLogDet(corr *mat.SymDense, idx []int) (logDet, rcond float64, ok bool) {
	if len(idx) == 1 {
		return 0, 1, true
	}

	block := mat.NewSymDense(len(idx), nil)
	for i, a := range idx {
		for j := i; j < len(idx); j++ {
			block.SetSym(i, j, corr.At(a, idx[j]))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(block); !ok {
		return math.Inf(-1), 0, false
	}
	return chol.LogDet(), 1 / chol.Cond(), true
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// wellConditioned holds for a positive definite block whose reciprocal
// condition number exceeds tolerance.
func wellConditioned(rcond float64, ok bool, tolerance float64) bool {
	return ok && !math.IsNaN(rcond) && rcond > tolerance
}
