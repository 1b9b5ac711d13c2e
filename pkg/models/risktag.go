package models

// RiskTag is a categorical label attached to an address by the
// upstream data provider.
type RiskTag string

const (
	TagMixer      RiskTag = "MIXER"
	TagDarknet    RiskTag = "DARKNET"
	TagSanctioned RiskTag = "SANCTIONED"
	TagHack       RiskTag = "HACK"
	TagScam       RiskTag = "SCAM"
	TagGambling   RiskTag = "GAMBLING"
	TagExchange   RiskTag = "EXCHANGE"
	TagUnknown    RiskTag = "UNKNOWN"
)

// TagWeight is the signed contribution weight for each risk tag in
// the scoring formula. UNKNOWN carries weight 0 and is never
// surfaced as a flagged entity (spec's resolution of the reference
// implementation's sum-vs-exclude inconsistency for this tag).
var TagWeight = map[RiskTag]float64{
	TagMixer:      1.0,
	TagDarknet:    1.0,
	TagSanctioned: 1.0,
	TagHack:       0.9,
	TagScam:       0.8,
	TagGambling:   0.4,
	TagExchange:   -0.2,
	TagUnknown:    0.0,
}

// DefinitiveTags is the set of tags past which the BFS never
// expands: a node carrying one of these is terminal.
var DefinitiveTags = map[RiskTag]bool{
	TagMixer:      true,
	TagDarknet:    true,
	TagSanctioned: true,
	TagHack:       true,
	TagScam:       true,
	TagGambling:   true,
	TagExchange:   true,
}

// HasDefinitiveTag reports whether any tag in the set is terminal.
func HasDefinitiveTag(tags []RiskTag) bool {
	for _, t := range tags {
		if DefinitiveTags[t] {
			return true
		}
	}
	return false
}

// DominantTag returns the tag with the largest weight magnitude in
// the set, used to pick a single representative tag per flagged
// node for the scoring formula and the report's `tag` field when an
// address carries more than one tag. Ties break alphabetically for
// determinism.
func DominantTag(tags []RiskTag) (RiskTag, bool) {
	if len(tags) == 0 {
		return "", false
	}
	best := tags[0]
	bestAbs := absWeight(best)
	for _, t := range tags[1:] {
		w := absWeight(t)
		if w > bestAbs || (w == bestAbs && t < best) {
			best = t
			bestAbs = w
		}
	}
	return best, true
}

func absWeight(t RiskTag) float64 {
	w := TagWeight[t]
	if w < 0 {
		return -w
	}
	return w
}
