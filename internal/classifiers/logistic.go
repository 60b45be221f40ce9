package classifiers

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

const defaultLogisticIterations = 100

// LogisticRegressionArgs holds the arguments for creating a multinomial
// logistic regression.
type LogisticRegressionArgs struct {
	Name string
	// C is the inverse L2 regularization strength. Defaults to 1.
	C float64 `mapstructure:"c"`
	// MaxIterations bounds the L-BFGS iterations. Defaults to 100.
	MaxIterations int `mapstructure:"max_iterations"`
}

// LogisticRegression is a multinomial (softmax) logistic regression with an
// unpenalized intercept.
type LogisticRegression struct {
	fitState
	name          string
	c             float64
	maxIterations int

	// weights is (features+1)×classes, bias in the last row.
	weights *mat.Dense
}

func NewLogisticRegression(args LogisticRegressionArgs) *LogisticRegression {
	l := &LogisticRegression{name: args.Name, c: args.C, maxIterations: args.MaxIterations}
	if l.c <= 0 {
		l.c = defaultC
	}
	if l.maxIterations <= 0 {
		l.maxIterations = defaultLogisticIterations
	}
	return l
}

func (l *LogisticRegression) Name() string { return l.name }
func (l *LogisticRegression) Kind() Kind   { return KindLogisticRegression }

func (l *LogisticRegression) Fit(ctx context.Context, features [][]float64, labels []string) error {
	width, err := validateTraining(features, labels)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.fitted = false
	l.labels = newLabelSet(labels)
	l.nFeatures = width
	k := len(l.labels.classes)

	if k == 1 {
		l.weights = mat.NewDense(width+1, 1, nil)
		l.fitted = true
		return nil
	}

	x := designMatrix(features, nil, width)
	y := l.labels.encode(labels)
	w, err := minimize(ctx, softmaxLoss(x, y, k, l.c), make([]float64, (width+1)*k), l.maxIterations)
	if err != nil {
		return err
	}

	l.weights = mat.NewDense(width+1, k, w)
	l.fitted = true
	return nil
}

func (l *LogisticRegression) PredictTop(features []float64) (string, error) {
	d, err := l.PredictDistribution(features)
	if err != nil {
		return "", err
	}
	return d.Top(), nil
}

func (l *LogisticRegression) PredictDistribution(features []float64) (Distribution, error) {
	if err := l.checkSample(features); err != nil {
		return nil, err
	}
	z := scores(l.weights, features)
	softmaxInPlace(z)
	return l.labels.distribution(z), nil
}

// softmaxLoss is the mean cross-entropy of a softmax model plus an L2 penalty
// of 1/(2Cn)·|W|² on every row but the bias.
func softmaxLoss(x *mat.Dense, y []int, k int, c float64) objective {
	n, cols := x.Dims()
	lambda := 1 / (c * float64(n))
	p := mat.NewDense(n, k, nil)

	return func(w, grad []float64) float64 {
		wm := mat.NewDense(cols, k, w)
		p.Mul(x, wm)

		loss := 0.0
		for i := 0; i < n; i++ {
			row := p.RawRowView(i)
			hi := row[0]
			for _, v := range row[1:] {
				hi = math.Max(hi, v)
			}
			sum := 0.0
			for _, v := range row {
				sum += math.Exp(v - hi)
			}
			lse := hi + math.Log(sum)
			loss += lse - row[y[i]]
			for j, v := range row {
				row[j] = math.Exp(v - lse)
			}
			row[y[i]]--
		}
		loss /= float64(n)

		gm := mat.NewDense(cols, k, grad)
		gm.Mul(x.T(), p)
		gm.Scale(1/float64(n), gm)

		for j := 0; j < cols-1; j++ {
			for cls := 0; cls < k; cls++ {
				v := wm.At(j, cls)
				loss += lambda / 2 * v * v
				gm.Set(j, cls, gm.At(j, cls)+lambda*v)
			}
		}
		return loss
	}
}
