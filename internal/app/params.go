package app

import (
	"math"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/config"
	"github.com/samvad-hq/samvad-feed-sampler/internal/sampler"
	"github.com/spf13/cast"
)

// Parameter keys accepted by ReadParameters.
const (
	ParamMaxOldnessSeconds     = "max_oldness_seconds"
	ParamMaximumItemsToCollect = "maximum_items_to_collect"
	ParamMinPostLength         = "min_post_length"
	ParamMaxExtractionTrials   = "max_extraction_trials"
)

// MaxOldnessSecondsLimit is the largest max age that fits a time.Duration.
const MaxOldnessSecondsLimit = math.MaxInt64 / int64(time.Second)

// Parameters are the per-invocation knobs of one sampling run.
type Parameters struct {
	MaxOldnessSeconds     int64 `json:"max_oldness_seconds"`
	MaximumItemsToCollect int   `json:"maximum_items_to_collect"`
	MinPostLength         int   `json:"min_post_length"`
	MaxExtractionTrials   int   `json:"max_extraction_trials"`
}

// DefaultParameters returns the built-in defaults.
func DefaultParameters() Parameters {
	return Parameters{
		MaxOldnessSeconds:     360,
		MaximumItemsToCollect: 25,
		MinPostLength:         10,
		MaxExtractionTrials:   10,
	}
}

// ParametersFromConfig returns the defaults carried in cfg.
func ParametersFromConfig(cfg *config.Config) Parameters {
	if cfg == nil {
		return DefaultParameters()
	}
	return ReadParameters(map[string]any{
		ParamMaxOldnessSeconds:     cfg.MaxOldnessSeconds,
		ParamMaximumItemsToCollect: cfg.MaximumItemsToCollect,
		ParamMinPostLength:         cfg.MinPostLength,
		ParamMaxExtractionTrials:   cfg.MaxExtractionTrials,
	}, DefaultParameters())
}

// ReadParameters reads an untyped parameter map. Values may be numbers or numeric
// strings; a missing, malformed or negative value falls back to the matching field of
// defaults.
func ReadParameters(raw map[string]any, defaults Parameters) Parameters {
	p := defaults
	if v, ok := readInt64(raw, ParamMaxOldnessSeconds); ok {
		p.MaxOldnessSeconds = min(v, MaxOldnessSecondsLimit)
	}
	if v, ok := readInt64(raw, ParamMaximumItemsToCollect); ok {
		p.MaximumItemsToCollect = int(v)
	}
	if v, ok := readInt64(raw, ParamMinPostLength); ok {
		p.MinPostLength = int(v)
	}
	if v, ok := readInt64(raw, ParamMaxExtractionTrials); ok {
		p.MaxExtractionTrials = int(v)
	}
	return p
}

func readInt64(raw map[string]any, key string) (int64, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Request converts the parameters into a sampling request. Max ages beyond
// MaxOldnessSecondsLimit are clamped.
func (p Parameters) Request() sampler.Request {
	return sampler.Request{
		TargetCount: p.MaximumItemsToCollect,
		MaxAge:      time.Duration(min(p.MaxOldnessSeconds, MaxOldnessSecondsLimit)) * time.Second,
		MaxTries:    p.MaxExtractionTrials,
	}
}
