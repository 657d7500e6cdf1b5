package spell

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultLabel is the gesture label sent for the open-palm hold.
const DefaultLabel = "Mystic Shield Formation"

// Analyzer produces a Record for a gesture held for the given duration.
type Analyzer interface {
	Analyze(ctx context.Context, label string, seconds float64) (Record, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, label string, seconds float64) (Record, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, label string, seconds float64) (Record, error) {
	return f(ctx, label, seconds)
}

// Resolver wraps an Analyzer and never fails: errors, panics, invalid
// records and timeouts all resolve to Fallback.
type Resolver struct {
	analyzer Analyzer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewResolver creates a Resolver. A nil analyzer always yields the fallback.
// A zero timeout leaves the call bounded only by the caller's context.
func NewResolver(analyzer Analyzer, timeout time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{analyzer: analyzer, timeout: timeout, logger: logger}
}

// Resolve returns the analyzer's record or the fallback.
func (r *Resolver) Resolve(ctx context.Context, label string, seconds float64) Record {
	if r.analyzer == nil {
		return Fallback()
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	rec, err := r.analyze(ctx, label, seconds)
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		r.logger.Warn("spell analysis failed",
			zap.String("label", label),
			zap.Float64("seconds", seconds),
			zap.Error(err))
		return Fallback()
	}
	return rec
}

func (r *Resolver) analyze(ctx context.Context, label string, seconds float64) (rec Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("analyzer panicked: %v", p)
		}
	}()
	return r.analyzer.Analyze(ctx, label, seconds)
}
