package classifiers

import (
	"context"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const defaultC = 1.0

// objective evaluates a loss at w and writes its gradient into grad.
type objective func(w, grad []float64) float64

// minimize runs L-BFGS from init. Func and Grad share one evaluation per point.
// Running out of iterations is not an error: the best point found is returned.
func minimize(ctx context.Context, f objective, init []float64, maxIterations int) ([]float64, error) {
	var (
		lastX    []float64
		lastGrad = make([]float64, len(init))
		lastF    float64
	)
	eval := func(x []float64) {
		if lastX != nil && floats.Equal(x, lastX) {
			return
		}
		if lastX == nil {
			lastX = make([]float64, len(x))
		}
		copy(lastX, x)
		lastF = f(x, lastGrad)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			eval(x)
			return lastF
		},
		Grad: func(grad, x []float64) {
			eval(x)
			copy(grad, lastGrad)
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   maxIterations,
		GradientThreshold: 1e-6,
		Recorder:          ctxRecorder{ctx: ctx},
	}

	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if result == nil {
			return nil, err
		}
		slog.Debug("optimizer stopped early", "status", result.Status, "err", err)
	}
	return result.X, nil
}

// ctxRecorder aborts the optimization once ctx is done.
type ctxRecorder struct {
	ctx context.Context
}

func (r ctxRecorder) Init() error { return r.ctx.Err() }

func (r ctxRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

// designMatrix copies the selected rows into a dense matrix with a trailing
// bias column of ones. A nil rows selects every row.
func designMatrix(features [][]float64, rows []int, width int) *mat.Dense {
	if rows == nil {
		rows = make([]int, len(features))
		for i := range rows {
			rows[i] = i
		}
	}
	x := mat.NewDense(len(rows), width+1, nil)
	for i, r := range rows {
		for j, v := range features[r] {
			x.Set(i, j, v)
		}
		x.Set(i, width, 1)
	}
	return x
}

// scores returns the per-class linear scores of one sample against a
// (width+1)×K weight matrix whose last row is the bias.
func scores(w *mat.Dense, sample []float64) []float64 {
	rows, k := w.Dims()
	out := make([]float64, k)
	for c := 0; c < k; c++ {
		s := w.At(rows-1, c)
		for j, v := range sample {
			if v != 0 {
				s += v * w.At(j, c)
			}
		}
		out[c] = s
	}
	return out
}

// softmaxInPlace replaces z with its softmax.
func softmaxInPlace(z []float64) {
	hi := floats.Max(z)
	sum := 0.0
	for i, v := range z {
		z[i] = math.Exp(v - hi)
		sum += z[i]
	}
	floats.Scale(1/sum, z)
}

// softplus is log(1+e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
