package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged random draws.
// All draws are logged at debug level with a label, the range, and the result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn returns a value in [0, n) and logs it under label.
//
// Precondition: n > 0.
func (r *Roller) Intn(label string, n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice draw",
		zap.String("label", label),
		zap.Int("n", n),
		zap.Int("result", v),
	)
	return v
}

// Between returns a value in [lo, hi] and logs it under label.
//
// Precondition: lo <= hi.
func (r *Roller) Between(label string, lo, hi int) int {
	v := Between(r.src, lo, hi)
	r.logger.Debug("dice draw",
		zap.String("label", label),
		zap.Int("lo", lo),
		zap.Int("hi", hi),
		zap.Int("result", v),
	)
	return v
}

// FloatBetween returns a value in [lo, hi] and logs it under label.
//
// Precondition: lo <= hi.
func (r *Roller) FloatBetween(label string, lo, hi float64) float64 {
	v := FloatBetween(r.src, lo, hi)
	r.logger.Debug("dice draw",
		zap.String("label", label),
		zap.Float64("lo", lo),
		zap.Float64("hi", hi),
		zap.Float64("result", v),
	)
	return v
}
