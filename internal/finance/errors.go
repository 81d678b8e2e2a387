package finance

import "errors"

var (
	// ErrConfiguration reports bad or duplicate analyzer inputs.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrDataUnavailable reports that the provider returned no usable data for an asset or benchmark.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientData reports fewer than two aligned data points.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateSeries reports a zero opening value used as a denominator.
	ErrDegenerateSeries = errors.New("degenerate series")
	// ErrDegenerateBenchmark reports a benchmark return equal to the risk-free rate.
	ErrDegenerateBenchmark = errors.New("degenerate benchmark")
	// ErrUndefinedRatio reports that the portfolio never fell below its risk-free-adjusted
	// baseline, so there is no downside deviation to divide by. Callers should treat it as
	// an expected outcome rather than a failure.
	ErrUndefinedRatio = errors.New("sortino ratio undefined")
)
