package router

import (
	"fmt"

	"github.com/Sheldon-92/personalmanager/internal/config"
)

// Action is the confidence policy's classification of a scored match.
type Action int

const (
	// ActionReject is the zero value: confidence too low to act on.
	ActionReject Action = iota
	// ActionConfirm requires the user to approve before execution.
	ActionConfirm
	// ActionAuto clears the match for execution without confirmation.
	ActionAuto
)

func (a Action) String() string {
	switch a {
	case ActionConfirm:
		return "confirm"
	case ActionAuto:
		return "auto"
	default:
		return "reject"
	}
}

// Default confidence thresholds. Matches scoring below the low threshold are
// rejected, at or above the high threshold run automatically, and everything
// in between asks first.
const (
	DefaultLowThreshold  = 0.5
	DefaultHighThreshold = 0.8
)

// Policy maps a confidence score to a reject, confirm, or auto action.
// The mapping is monotonic: raising confidence never downgrades the action.
type Policy struct {
	Low  float64
	High float64
}

// DefaultPolicy returns the stock reject/confirm/auto banding.
func DefaultPolicy() Policy {
	return Policy{Low: DefaultLowThreshold, High: DefaultHighThreshold}
}

// NewPolicy validates that both thresholds sit in [0,1] and that the bands
// do not invert. An inverted or out-of-range pair is a configuration error,
// not something to silently clamp.
func NewPolicy(low, high float64) (Policy, error) {
	if low < 0 || low > 1 {
		return Policy{}, &config.ConfigurationError{
			Field:  "routing.low_threshold",
			Reason: fmt.Sprintf("must be within [0,1], got %v", low),
		}
	}
	if high < 0 || high > 1 {
		return Policy{}, &config.ConfigurationError{
			Field:  "routing.high_threshold",
			Reason: fmt.Sprintf("must be within [0,1], got %v", high),
		}
	}
	if low > high {
		return Policy{}, &config.ConfigurationError{
			Field:  "routing.low_threshold",
			Reason: fmt.Sprintf("low threshold %v exceeds high threshold %v", low, high),
		}
	}
	return Policy{Low: low, High: high}, nil
}

// Classify places a confidence score into one of the three action bands.
// The low bound is exclusive-below, the high bound inclusive: a score equal
// to High runs automatically, a score equal to Low asks for confirmation.
func (p Policy) Classify(confidence float64) Action {
	switch {
	case confidence < p.Low:
		return ActionReject
	case confidence < p.High:
		return ActionConfirm
	default:
		return ActionAuto
	}
}
