package classifiers

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	defaultSVCIterations = 200
	defaultFolds         = 3
	plattIterations      = 100
)

// CalibratedLinearSVCArgs holds the arguments for creating a linear support
// vector classifier with cross-validated probability calibration.
type CalibratedLinearSVCArgs struct {
	Name string
	// C is the inverse L2 regularization strength. Defaults to 1.
	C float64 `mapstructure:"c"`
	// MaxIterations bounds the L-BFGS iterations of each SVC fit. Defaults to 200.
	MaxIterations int `mapstructure:"max_iterations"`
	// Folds is the number of calibration folds. Defaults to 3.
	Folds int `mapstructure:"folds"`
}

// CalibratedLinearSVC fits a one-vs-rest linear SVC (squared hinge loss) on
// each calibration fold's training part and a Platt sigmoid per class on the
// held-out part. Predictions average the calibrated distributions of all folds.
type CalibratedLinearSVC struct {
	fitState
	name          string
	c             float64
	maxIterations int
	folds         int

	calibrated []calibratedFold
}

type calibratedFold struct {
	weights *mat.Dense
	platt   []plattScaling
}

// plattScaling maps a decision value f to 1/(1+exp(A·f+B)).
type plattScaling struct {
	A, B float64
}

func (p plattScaling) probability(f float64) float64 {
	return sigmoid(-(p.A*f + p.B))
}

func NewCalibratedLinearSVC(args CalibratedLinearSVCArgs) *CalibratedLinearSVC {
	s := &CalibratedLinearSVC{
		name:          args.Name,
		c:             args.C,
		maxIterations: args.MaxIterations,
		folds:         args.Folds,
	}
	if s.c <= 0 {
		s.c = defaultC
	}
	if s.maxIterations <= 0 {
		s.maxIterations = defaultSVCIterations
	}
	if s.folds < 2 {
		s.folds = defaultFolds
	}
	return s
}

func (s *CalibratedLinearSVC) Name() string { return s.name }
func (s *CalibratedLinearSVC) Kind() Kind   { return KindCalibratedLinearSVC }

func (s *CalibratedLinearSVC) Fit(ctx context.Context, features [][]float64, labels []string) error {
	width, err := validateTraining(features, labels)
	if err != nil {
		return err
	}

	s.fitted = false
	s.labels = newLabelSet(labels)
	s.nFeatures = width
	k := len(s.labels.classes)
	y := s.labels.encode(labels)

	counts := make([]int, k)
	for _, id := range y {
		counts[id]++
	}
	for c, n := range counts {
		if n < 2 {
			return fmt.Errorf("%w: %q", ErrSingleMemberClass, s.labels.classes[c])
		}
	}

	folds := stratifiedFolds(y, k, s.folds)
	var calibrated []calibratedFold

	for f := 0; f < s.folds; f++ {
		var trainRows, testRows []int
		for i, fold := range folds {
			if fold == f {
				testRows = append(testRows, i)
			} else {
				trainRows = append(trainRows, i)
			}
		}
		if len(testRows) == 0 {
			continue
		}

		trainY := make([]int, len(trainRows))
		for i, r := range trainRows {
			trainY[i] = y[r]
		}
		x := designMatrix(features, trainRows, width)
		w, err := minimize(ctx, squaredHingeLoss(x, trainY, k, s.c), make([]float64, (width+1)*k), s.maxIterations)
		if err != nil {
			return err
		}
		weights := mat.NewDense(width+1, k, w)

		decisions := make([][]float64, len(testRows))
		for i, r := range testRows {
			decisions[i] = scores(weights, features[r])
		}

		platt := make([]plattScaling, k)
		for c := 0; c < k; c++ {
			values := make([]float64, len(testRows))
			positive := make([]bool, len(testRows))
			for i, r := range testRows {
				values[i] = decisions[i][c]
				positive[i] = y[r] == c
			}
			platt[c], err = fitPlatt(ctx, values, positive)
			if err != nil {
				return err
			}
		}

		calibrated = append(calibrated, calibratedFold{weights: weights, platt: platt})
	}

	s.calibrated = calibrated
	s.fitted = true
	return nil
}

func (s *CalibratedLinearSVC) PredictTop(features []float64) (string, error) {
	d, err := s.PredictDistribution(features)
	if err != nil {
		return "", err
	}
	return d.Top(), nil
}

func (s *CalibratedLinearSVC) PredictDistribution(features []float64) (Distribution, error) {
	if err := s.checkSample(features); err != nil {
		return nil, err
	}

	probs := make([]float64, len(s.labels.classes))
	for _, fold := range s.calibrated {
		z := scores(fold.weights, features)
		for c, v := range z {
			z[c] = fold.platt[c].probability(v)
		}
		normalize(z)
		for c, v := range z {
			probs[c] += v
		}
	}
	for c := range probs {
		probs[c] /= float64(len(s.calibrated))
	}
	return s.labels.distribution(probs), nil
}

// stratifiedFolds deals each class's members, in training order, round-robin
// across the folds. It returns the fold of every sample.
func stratifiedFolds(y []int, classes, folds int) []int {
	next := make([]int, classes)
	out := make([]int, len(y))
	for i, c := range y {
		out[i] = next[c] % folds
		next[c]++
	}
	return out
}

// squaredHingeLoss is the one-vs-rest squared hinge loss, averaged over
// samples, plus 1/(2Cn)·|W|². The bias row is penalized like any weight.
func squaredHingeLoss(x *mat.Dense, y []int, k int, c float64) objective {
	n, cols := x.Dims()
	lambda := 1 / (c * float64(n))
	r := mat.NewDense(n, k, nil)

	return func(w, grad []float64) float64 {
		wm := mat.NewDense(cols, k, w)
		r.Mul(x, wm)

		loss := 0.0
		for i := 0; i < n; i++ {
			row := r.RawRowView(i)
			for cls, m := range row {
				sign := -1.0
				if y[i] == cls {
					sign = 1
				}
				slack := math.Max(0, 1-sign*m)
				loss += slack * slack
				row[cls] = -2 * sign * slack
			}
		}
		loss /= float64(n)

		gm := mat.NewDense(cols, k, grad)
		gm.Mul(x.T(), r)
		gm.Scale(1/float64(n), gm)

		for j := 0; j < cols; j++ {
			for cls := 0; cls < k; cls++ {
				v := wm.At(j, cls)
				loss += lambda / 2 * v * v
				gm.Set(j, cls, gm.At(j, cls)+lambda*v)
			}
		}
		return loss
	}
}

// fitPlatt fits a sigmoid to decision values using Platt's smoothed targets.
func fitPlatt(ctx context.Context, values []float64, positive []bool) (plattScaling, error) {
	var nPos, nNeg float64
	for _, p := range positive {
		if p {
			nPos++
		} else {
			nNeg++
		}
	}
	hi := (nPos + 1) / (nPos + 2)
	lo := 1 / (nNeg + 2)
	targets := make([]float64, len(values))
	for i, p := range positive {
		if p {
			targets[i] = hi
		} else {
			targets[i] = lo
		}
	}

	loss := func(ab, grad []float64) float64 {
		a, b := ab[0], ab[1]
		total, gA, gB := 0.0, 0.0, 0.0
		for i, f := range values {
			z := a*f + b
			total += softplus(z) - (1-targets[i])*z
			dz := sigmoid(z) - (1 - targets[i])
			gA += dz * f
			gB += dz
		}
		grad[0], grad[1] = gA, gB
		return total
	}

	init := []float64{0, math.Log((nNeg + 1) / (nPos + 1))}
	ab, err := minimize(ctx, loss, init, plattIterations)
	if err != nil {
		return plattScaling{}, err
	}
	return plattScaling{A: ab[0], B: ab[1]}, nil
}
