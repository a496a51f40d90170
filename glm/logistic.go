// Package glm fits binomial-link generalized linear models.
//
// Logistic is a logistic regression estimator fit by iteratively reweighted
// least squares (Fisher scoring). IRLS is used instead of a generic
// gradient optimizer because the inverse Fisher information (X'WX)⁻¹ falls
// directly out of the final solve, giving the coefficient standard errors,
// z statistics, p-values and confidence intervals the analysis reports.
//
// A fit that reaches the iteration cap returns a ConvergenceError together
// with the partial estimates; callers decide whether to surface it as a
// warning or discard the model.
package glm

import (
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ezoic/acqstat/core/model"
	"github.com/ezoic/acqstat/pkg/errors"
	"github.com/ezoic/acqstat/pkg/log"
)

const (
	defaultMaxIter = 50
	defaultTol     = 1e-8

	// probEpsilon clamps fitted probabilities away from 0 and 1 so the
	// working weights and log-likelihood stay finite.
	probEpsilon = 1e-10
)

// Logistic is a binomial logistic regression model.
type Logistic struct {
	State *model.StateManager

	maxIter int
	tol     float64

	featureNames []string
	logger       log.Logger

	// Fitted parameters. Index 0 is the intercept, indices 1..k follow
	// the design matrix columns.
	coef   []float64
	stdErr []float64

	logLik    float64
	nParams   int
	nSamples  int
	converged bool
	iters     int
}

// Option is a functional option for Logistic.
type Option func(*Logistic)

// WithMaxIter sets the IRLS iteration cap.
func WithMaxIter(maxIter int) Option {
	return func(l *Logistic) {
		l.maxIter = maxIter
	}
}

// WithTol sets the convergence tolerance on the max coefficient change.
func WithTol(tol float64) Option {
	return func(l *Logistic) {
		l.tol = tol
	}
}

// WithFeatureNames attaches column names used in the coefficient summary.
func WithFeatureNames(names []string) Option {
	return func(l *Logistic) {
		l.featureNames = append([]string(nil), names...)
	}
}

// NewLogistic creates an untrained logistic regression model.
func NewLogistic(opts ...Option) *Logistic {
	l := &Logistic{
		State:   model.NewStateManager(),
		maxIter: defaultMaxIter,
		tol:     defaultTol,
	}
	l.logger = log.GetLoggerWithName("glm").With(
		log.ModelNameKey, "Logistic",
	)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// stableSigmoid computes sigmoid(z) without overflow for large |z|.
func stableSigmoid(z float64) float64 {
	if z >= 0 {
		ez := math.Exp(-z)
		return 1.0 / (1.0 + ez)
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

func clampProbability(p float64) float64 {
	if p < probEpsilon {
		return probEpsilon
	}
	if p > 1-probEpsilon {
		return 1 - probEpsilon
	}
	return p
}

// Fit estimates the coefficients by maximum likelihood using IRLS.
//
// X is the design matrix without an intercept column (one is added
// internally); y holds binary labels. When the iteration cap is reached the
// partial estimates are retained, the model is marked fitted, and a
// ConvergenceError is returned so the caller can attach it as a warning.
func (l *Logistic) Fit(X mat.Matrix, y []float64) (err error) {
	defer errors.Recover(&err, "Logistic.Fit")

	start := time.Now()
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError("Logistic.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(y) != n {
		return errors.NewDimensionError("Logistic.Fit", n, len(y), 0)
	}
	for i, label := range y {
		if label != 0 && label != 1 {
			return errors.NewValidationError("y", "labels must be binary (0 or 1)", y[i])
		}
	}
	if n <= p+1 {
		return errors.NewModelError("Logistic.Fit", "more parameters than samples", errors.ErrSingularMatrix)
	}

	// Refitting discards the previous fitted state until the new fit lands.
	l.State.Reset()

	l.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, n,
		log.FeaturesKey, p,
	)

	// Design with intercept: Xb = [1, X].
	xb := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		xb.Set(i, 0, 1.0)
		for j := 0; j < p; j++ {
			xb.Set(i, j+1, X.At(i, j))
		}
	}

	beta := make([]float64, p+1)
	eta := make([]float64, n)
	mu := make([]float64, n)
	w := make([]float64, n)
	z := make([]float64, n)

	sqrtWX := mat.NewDense(n, p+1, nil)
	sqrtWZ := mat.NewVecDense(n, nil)
	betaVec := mat.NewVecDense(p+1, nil)

	l.converged = false
	for iter := 0; iter < l.maxIter; iter++ {
		for i := 0; i < n; i++ {
			e := 0.0
			for j := 0; j <= p; j++ {
				e += xb.At(i, j) * beta[j]
			}
			eta[i] = e
			mu[i] = clampProbability(stableSigmoid(e))
			w[i] = mu[i] * (1 - mu[i])
			z[i] = eta[i] + (y[i]-mu[i])/w[i]
		}

		// Weighted least squares step: solve sqrt(W)Xb · beta = sqrt(W)z.
		for i := 0; i < n; i++ {
			sw := math.Sqrt(w[i])
			for j := 0; j <= p; j++ {
				sqrtWX.Set(i, j, sw*xb.At(i, j))
			}
			sqrtWZ.SetVec(i, sw*z[i])
		}

		var qr mat.QR
		qr.Factorize(sqrtWX)
		if err := qr.SolveVecTo(betaVec, false, sqrtWZ); err != nil {
			return errors.NewModelError("Logistic.Fit", "weighted least squares step", errors.ErrSingularMatrix)
		}

		maxDelta := 0.0
		for j := 0; j <= p; j++ {
			delta := math.Abs(betaVec.AtVec(j) - beta[j])
			if delta > maxDelta {
				maxDelta = delta
			}
			beta[j] = betaVec.AtVec(j)
		}
		l.iters = iter + 1

		if maxDelta < l.tol {
			l.converged = true
			break
		}
	}

	l.coef = beta
	l.nParams = p + 1
	l.nSamples = n

	// Log-likelihood and Fisher information at the final estimate.
	l.logLik = 0
	for i := 0; i < n; i++ {
		e := 0.0
		for j := 0; j <= p; j++ {
			e += xb.At(i, j) * beta[j]
		}
		pi := clampProbability(stableSigmoid(e))
		if y[i] == 1 {
			l.logLik += math.Log(pi)
		} else {
			l.logLik += math.Log(1 - pi)
		}
		w[i] = pi * (1 - pi)
	}

	stdErr, covErr := l.covarianceStdErr(xb, w)
	if covErr != nil {
		return covErr
	}
	l.stdErr = stdErr

	l.State.SetFitted()
	l.State.SetDimensions(p, n)

	l.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, n,
		log.FeaturesKey, p,
		log.IterationsKey, l.iters,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	if !l.converged {
		return errors.NewConvergenceError("Logistic.Fit", l.iters, "coefficient change above tolerance")
	}
	return nil
}

// covarianceStdErr inverts the Fisher information Xb'WXb and returns the
// square roots of its diagonal.
func (l *Logistic) covarianceStdErr(xb *mat.Dense, w []float64) ([]float64, error) {
	n, k := xb.Dims()

	wx := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			wx.Set(i, j, w[i]*xb.At(i, j))
		}
	}

	var info mat.Dense
	info.Mul(xb.T(), wx)

	var cov mat.Dense
	if err := cov.Inverse(&info); err != nil {
		return nil, errors.NewModelError("Logistic.Fit", "Fisher information is singular", errors.ErrSingularMatrix)
	}

	stdErr := make([]float64, k)
	for j := 0; j < k; j++ {
		v := cov.At(j, j)
		if v < 0 {
			v = 0
		}
		stdErr[j] = math.Sqrt(v)
	}
	return stdErr, nil
}

// PredictProba returns P(y=1) for each row of X.
func (l *Logistic) PredictProba(X mat.Matrix) (_ []float64, err error) {
	defer errors.Recover(&err, "Logistic.PredictProba")
	if !l.State.IsFitted() {
		return nil, errors.NewNotFittedError("Logistic", "PredictProba")
	}

	n, p := X.Dims()
	if p != l.nParams-1 {
		return nil, errors.NewDimensionError("Logistic.PredictProba", l.nParams-1, p, 1)
	}

	l.logger.Debug("Prediction started",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, n,
	)

	probs := make([]float64, n)
	for i := 0; i < n; i++ {
		z := l.coef[0]
		for j := 0; j < p; j++ {
			z += X.At(i, j) * l.coef[j+1]
		}
		probs[i] = stableSigmoid(z)
	}
	return probs, nil
}

// Intercept returns the fitted intercept.
func (l *Logistic) Intercept() float64 {
	if !l.State.IsFitted() {
		return 0
	}
	return l.coef[0]
}

// Coefficients returns the fitted slopes (excluding the intercept).
func (l *Logistic) Coefficients() []float64 {
	if !l.State.IsFitted() {
		return nil
	}
	return append([]float64(nil), l.coef[1:]...)
}

// LogLikelihood returns the maximized log-likelihood.
func (l *Logistic) LogLikelihood() float64 { return l.logLik }

// NumParams returns the parameter count k (slopes plus intercept).
func (l *Logistic) NumParams() int { return l.nParams }

// NumSamples returns the training sample size n used for fitting.
func (l *Logistic) NumSamples() int { return l.nSamples }

// Converged reports whether IRLS met the tolerance within the cap.
func (l *Logistic) Converged() bool { return l.converged }

// Iterations returns the IRLS iterations performed.
func (l *Logistic) Iterations() int { return l.iters }

// AIC returns −2·logLik + 2k.
func (l *Logistic) AIC() float64 {
	return -2*l.logLik + 2*float64(l.nParams)
}

// BIC returns −2·logLik + k·ln(n) with n the fitting sample size.
func (l *Logistic) BIC() float64 {
	return -2*l.logLik + float64(l.nParams)*math.Log(float64(l.nSamples))
}

// Coefficient is one row of the fitted coefficient table.
type Coefficient struct {
	Name      string
	Estimate  float64
	StdErr    float64
	Z         float64
	P         float64
	CILow     float64 // 95% confidence interval
	CIHigh    float64
	OddsRatio float64 // exp(Estimate)
}

// Summary returns the coefficient table with Wald z statistics, two-sided
// p-values, 95% confidence intervals and odds ratios.
func (l *Logistic) Summary() ([]Coefficient, error) {
	if !l.State.IsFitted() {
		return nil, errors.NewNotFittedError("Logistic", "Summary")
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	zCrit := normal.Quantile(0.975)

	out := make([]Coefficient, l.nParams)
	for j := 0; j < l.nParams; j++ {
		name := "(intercept)"
		if j > 0 {
			if j-1 < len(l.featureNames) {
				name = l.featureNames[j-1]
			} else {
				name = "x" + strconv.Itoa(j-1)
			}
		}

		est := l.coef[j]
		se := l.stdErr[j]
		z := math.Inf(1)
		pVal := 0.0
		if se > 0 {
			z = est / se
			pVal = 2 * normal.Survival(math.Abs(z))
		}
		out[j] = Coefficient{
			Name:      name,
			Estimate:  est,
			StdErr:    se,
			Z:         z,
			P:         pVal,
			CILow:     est - zCrit*se,
			CIHigh:    est + zCrit*se,
			OddsRatio: math.Exp(est),
		}
	}
	return out, nil
}
