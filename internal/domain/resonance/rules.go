package resonance

import "github.com/cogbridge/cogbridge/internal/domain/model"

type criterion struct {
	match  func(float64) bool
	weight float64
}

type rule struct {
	name     model.ResonanceType
	criteria map[string]criterion
}

// rules holds the classification table, name-ascending so ties resolve
// deterministically to the lexically smaller type.
var rules = []rule{
	{
		name: model.ResonanceInnovation,
		criteria: map[string]criterion{
			KeyLoadTrend:          {func(x float64) bool { return x > 0.2 }, 0.2},
			KeyFocusStability:     {func(x float64) bool { return x < 0.3 }, 0.2},
			KeyPatternCoherence:   {func(x float64) bool { return x < 0.5 }, 0.2},
			KeyEmergencePotential: {func(x float64) bool { return x > 0.8 }, 0.4},
		},
	},
	{
		name: model.ResonanceInsight,
		criteria: map[string]criterion{
			KeyLoadTrend:          {func(x float64) bool { return x < 0 }, 0.2},
			KeyFocusStability:     {func(x float64) bool { return x > 0.7 }, 0.3},
			KeyPatternCoherence:   {func(x float64) bool { return x > 0.8 }, 0.2},
			KeyEmergencePotential: {func(x float64) bool { return x > 0.7 }, 0.3},
		},
	},
	{
		name: model.ResonanceIntegration,
		criteria: map[string]criterion{
			KeyLoadTrend:          {func(x float64) bool { return x > -0.2 && x < 0.2 }, 0.25},
			KeyFocusStability:     {func(x float64) bool { return x > 0.5 }, 0.25},
			KeyPatternCoherence:   {func(x float64) bool { return x > 0.4 && x < 0.8 }, 0.25},
			KeyEmergencePotential: {func(x float64) bool { return x > 0.4 && x < 0.8 }, 0.25},
		},
	},
	{
		name: model.ResonanceLearning,
		criteria: map[string]criterion{
			KeyLoadTrend:          {func(x float64) bool { return x > 0 }, 0.3},
			KeyFocusStability:     {func(x float64) bool { return x < 0.5 }, 0.2},
			KeyPatternCoherence:   {func(x float64) bool { return x > 0.6 }, 0.3},
			KeyEmergencePotential: {func(x float64) bool { return x > 0.3 && x < 0.7 }, 0.2},
		},
	},
}

// classify scores every rule against the metrics and returns the
// best-matching resonance type with its summed weight as strength.
func classify(metrics map[string]float64) (model.ResonanceType, float64) {
	best := rules[0].name
	bestStrength := 0.0
	for i, r := range rules {
		var strength float64
		for key, c := range r.criteria {
			if v, ok := metrics[key]; ok && c.match(v) {
				strength += c.weight
			}
		}
		if i == 0 || strength > bestStrength {
			best = r.name
			bestStrength = strength
		}
	}
	return best, bestStrength
}
