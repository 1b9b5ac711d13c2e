// Package riskscore is the Risk Scorer of spec.md §4.5: a pure
// function of flagged entities, their (tag, distance, contribution)
// tuples, and the circular-path count. Its formula, weight table
// and level thresholds are spec.md's own and are authoritative over
// original_source/app/services/risk_scorer.py, which is internally
// inconsistent (see DESIGN.md).
package riskscore

import (
	"fmt"
	"math"
	"sort"

	"github.com/rawblock/kyt-engine/pkg/models"
)

// Config holds the one tunable constant the formula exposes.
type Config struct {
	ContributionK float64 // score.contribution_K, 3.0 in the reference
}

// DefaultConfig matches spec.md §4.5's reference value.
func DefaultConfig() Config { return Config{ContributionK: 3.0} }

// reasonThreshold is the visibility bound spec.md §4.5 sets for
// including a flagged node's sentence in Reasons: W*D >= 0.1.
const reasonThreshold = 0.1

// decay returns 0.5^(distance-1): distance 1 = 1.0, 2 = 0.5, 3 =
// 0.25, ...
func decay(distance int) float64 {
	return math.Pow(0.5, float64(distance-1))
}

// damp caps the influence of any one transfer's size via a log-
// damped ratio against K.
func damp(contribution, k float64) float64 {
	if k <= 0 {
		return 0
	}
	v := math.Log1p(contribution) / k
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

// weightedDecay returns W(tag)*D for a flagged entity, the quantity
// both the visibility threshold and the ordering tie-breaks are
// computed from.
func weightedDecay(tag models.RiskTag, distance int) float64 {
	return models.TagWeight[tag] * decay(distance)
}

// Score computes the final RiskScore from the tracer's output.
// flagged entries must already have a representative Tag set (see
// models.DominantTag); circularPaths is the count of re-visited
// addresses detected during the BFS.
func Score(flagged []models.FlaggedEntity, circularPaths int, cfg Config) models.RiskScore {
	raw := 0.0
	for _, f := range flagged {
		wd := weightedDecay(f.Tag, f.Distance)
		raw += wd * damp(f.Contribution, cfg.ContributionK)
	}

	clamped := raw
	if clamped < 0 {
		clamped = 0
	}
	if clamped > 1 {
		clamped = 1
	}
	score := int(math.Round(100 * clamped))

	return models.RiskScore{
		Score:   score,
		Level:   level(score),
		Reasons: reasons(flagged, circularPaths),
	}
}

func level(score int) models.RiskLevel {
	switch {
	case score < 20:
		return models.LevelSafe
	case score < 40:
		return models.LevelLow
	case score < 60:
		return models.LevelMedium
	case score < 80:
		return models.LevelHigh
	default:
		return models.LevelCritical
	}
}

// reasons builds the ordered, human-readable reason list: one
// sentence per flagged node above reasonThreshold, ordered by
// (W*D desc, distance asc), plus a circular-path note.
func reasons(flagged []models.FlaggedEntity, circularPaths int) []string {
	type scored struct {
		entity models.FlaggedEntity
		wd     float64
	}
	visible := make([]scored, 0, len(flagged))
	for _, f := range flagged {
		wd := weightedDecay(f.Tag, f.Distance)
		if wd >= reasonThreshold {
			visible = append(visible, scored{entity: f, wd: wd})
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i], visible[j]
		if a.wd != b.wd {
			return a.wd > b.wd
		}
		if a.entity.Distance != b.entity.Distance {
			return a.entity.Distance < b.entity.Distance
		}
		if a.entity.Contribution != b.entity.Contribution {
			return a.entity.Contribution > b.entity.Contribution
		}
		return a.entity.Address < b.entity.Address
	})

	out := make([]string, 0, len(visible)+2)
	for _, s := range visible {
		out = append(out, fmt.Sprintf(
			"%s at distance %d tagged %s (contribution %.4g, weight*decay %.4f)",
			s.entity.Address, s.entity.Distance, s.entity.Tag, s.entity.Contribution, s.wd,
		))
	}

	if len(flagged) == 0 {
		out = append(out, "no flagged entities found in the traced upstream graph")
	} else {
		out = append(out, fmt.Sprintf("%d flagged entit%s contributed to this score", len(flagged), pluralY(len(flagged))))
	}

	if circularPaths > 0 {
		out = append(out, fmt.Sprintf("circular path(s) detected: %d address(es) re-visited during traversal", circularPaths))
	}

	return out
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
