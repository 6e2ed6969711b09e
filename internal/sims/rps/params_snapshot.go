package rps

import (
	"strconv"

	"rps-kmc/internal/core"
)

// Parameter keys accepted by SetFloatParameter.
const (
	ParamMobility = "mobility"
	ParamSigma    = "sigma"
	ParamMu       = "mu"
)

func (e *Engine) Parameters() core.ParameterSnapshot {
	groups := []core.ParameterGroup{
		{
			Name: "Lattice",
			Params: []core.Parameter{
				intParam("size", "Side length", e.l),
				int64Param("seed", "Seed", e.cfg.Seed),
			},
		},
		{
			Name:    "Rates",
			Summary: "epsilon = M*L*L/2",
			Params: []core.Parameter{
				floatParam(ParamMobility, "Mobility M", e.Mobility()),
				floatParam("epsilon", "Exchange rate", e.epsilon),
				floatParam(ParamSigma, "Selection rate", e.sigma),
				floatParam(ParamMu, "Reproduction rate", e.mu),
			},
		},
		{
			Name: "State",
			Params: []core.Parameter{
				floatParam("t", "Time", e.t),
				floatParam("w", "Total rate", e.w),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the rates that may be adjusted while running.
func (e *Engine) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: ParamMobility, Label: "Mobility", Type: core.ParamTypeFloat, Step: 1e-6, Factor: 2, Min: 0, HasMin: true},
		{Key: ParamSigma, Label: "Selection", Type: core.ParamTypeFloat, Step: 0.1, Min: 0, HasMin: true},
		{Key: ParamMu, Label: "Reproduction", Type: core.ParamTypeFloat, Step: 0.1, Min: 0, HasMin: true},
	}
}

// SetFloatParameter updates a rate by key. Negative, NaN and infinite values
// are rejected.
func (e *Engine) SetFloatParameter(key string, value float64) bool {
	var err error
	switch key {
	case ParamMobility:
		err = e.SetMobility(value)
	case ParamSigma:
		err = e.SetSigma(value)
	case ParamMu:
		err = e.SetMu(value)
	default:
		return false
	}
	return err == nil
}

// FloatParameter reads a rate by key.
func (e *Engine) FloatParameter(key string) (float64, bool) {
	switch key {
	case ParamMobility:
		return e.Mobility(), true
	case ParamSigma:
		return e.sigma, true
	case ParamMu:
		return e.mu, true
	}
	return 0, false
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'g', -1, 64),
	}
}
