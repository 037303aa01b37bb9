package domain

import "time"

const (
	DefaultCaptureSamples         = 10
	DefaultCaptureAccuracyCeiling = 30.0
	DefaultCaptureTimeout         = 60 * time.Second
)

type CaptureOptions struct {
	TargetSamples   int
	Timeout         time.Duration
	AccuracyCeiling float64
}

// WithDefaults fills zero fields.
func (o CaptureOptions) WithDefaults() CaptureOptions {
	if o.TargetSamples <= 0 {
		o.TargetSamples = DefaultCaptureSamples
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultCaptureTimeout
	}
	if o.AccuracyCeiling <= 0 {
		o.AccuracyCeiling = DefaultCaptureAccuracyCeiling
	}
	return o
}

// CaptureResult is the averaged fix produced by a completed capture.
type CaptureResult struct {
	Fix      PositionFix `json:"fix"`
	Samples  int         `json:"samples"`
	TimedOut bool        `json:"timed_out"`
}
