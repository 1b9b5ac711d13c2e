package riskscore

import (
	"strings"
	"testing"

	"github.com/rawblock/kyt-engine/pkg/models"
)

func TestScore_NoFlaggedEntities(t *testing.T) {
	got := Score(nil, 0, DefaultConfig())
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0", got.Score)
	}
	if got.Level != models.LevelSafe {
		t.Fatalf("level = %s, want SAFE", got.Level)
	}
}

func TestScore_SingleMixerAtDistance1(t *testing.T) {
	// W(MIXER)=1.0, D=1.0, contribution large enough to saturate the
	// log-damping term near 1 => raw near 1.0 => score near 100.
	flagged := []models.FlaggedEntity{
		{Address: "addr1", Tag: models.TagMixer, Distance: 1, Contribution: 1000},
	}
	got := Score(flagged, 0, DefaultConfig())
	if got.Score < 80 {
		t.Fatalf("score = %d, want >= 80 (CRITICAL range) for a direct mixer hit", got.Score)
	}
	if got.Level != models.LevelCritical {
		t.Fatalf("level = %s, want CRITICAL", got.Level)
	}
}

func TestScore_DistanceDecay(t *testing.T) {
	cfg := DefaultConfig()
	near := Score([]models.FlaggedEntity{{Tag: models.TagMixer, Distance: 1, Contribution: 1000}}, 0, cfg)
	far := Score([]models.FlaggedEntity{{Tag: models.TagMixer, Distance: 3, Contribution: 1000}}, 0, cfg)
	if far.Score >= near.Score {
		t.Fatalf("expected decay to lower the score at greater distance: near=%d far=%d", near.Score, far.Score)
	}
}

func TestScore_ExchangeIsNegative(t *testing.T) {
	cfg := DefaultConfig()
	got := Score([]models.FlaggedEntity{{Tag: models.TagExchange, Distance: 1, Contribution: 1000}}, 0, cfg)
	if got.Score != 0 {
		t.Fatalf("score = %d, want 0 (EXCHANGE-only contributions clamp at the floor)", got.Score)
	}
	if got.Level != models.LevelSafe {
		t.Fatalf("level = %s, want SAFE", got.Level)
	}
}

func TestScore_MonotonicInContribution(t *testing.T) {
	cfg := DefaultConfig()
	small := Score([]models.FlaggedEntity{{Tag: models.TagGambling, Distance: 1, Contribution: 0.01}}, 0, cfg)
	large := Score([]models.FlaggedEntity{{Tag: models.TagGambling, Distance: 1, Contribution: 50}}, 0, cfg)
	if large.Score < small.Score {
		t.Fatalf("expected score to be monotonic in contribution size: small=%d large=%d", small.Score, large.Score)
	}
}

func TestScore_ReasonsOrderedByWeightDecayThenDistance(t *testing.T) {
	flagged := []models.FlaggedEntity{
		{Address: "far-hack", Tag: models.TagHack, Distance: 3, Contribution: 500},
		{Address: "near-mixer", Tag: models.TagMixer, Distance: 1, Contribution: 500},
	}
	got := Score(flagged, 0, DefaultConfig())
	if len(got.Reasons) < 2 {
		t.Fatalf("expected at least 2 reason lines, got %d: %v", len(got.Reasons), got.Reasons)
	}
	if !strings.Contains(got.Reasons[0], "near-mixer") {
		t.Fatalf("expected the higher weight*decay entity (near-mixer) first, got: %v", got.Reasons)
	}
}

func TestScore_ReasonsTieBreakOnContributionThenAddress(t *testing.T) {
	// Same tag, same distance => identical weight*decay. Ordering must
	// fall through to (higher contribution, then lexicographic
	// address), not input order.
	flagged := []models.FlaggedEntity{
		{Address: "zzz-low", Tag: models.TagMixer, Distance: 1, Contribution: 10},
		{Address: "aaa-high", Tag: models.TagMixer, Distance: 1, Contribution: 1000},
		{Address: "bbb-tied", Tag: models.TagMixer, Distance: 1, Contribution: 1000},
	}
	got := Score(flagged, 0, DefaultConfig())
	if len(got.Reasons) < 3 {
		t.Fatalf("expected at least 3 reason lines, got %d: %v", len(got.Reasons), got.Reasons)
	}
	if !strings.Contains(got.Reasons[0], "aaa-high") {
		t.Fatalf("expected the higher-contribution entity first, got: %v", got.Reasons)
	}
	if !strings.Contains(got.Reasons[1], "bbb-tied") {
		t.Fatalf("expected the contribution tie broken lexicographically by address, got: %v", got.Reasons)
	}
	if !strings.Contains(got.Reasons[2], "zzz-low") {
		t.Fatalf("expected the lowest-contribution entity last, got: %v", got.Reasons)
	}
}

func TestScore_CircularPathsNoted(t *testing.T) {
	got := Score(nil, 2, DefaultConfig())
	found := false
	for _, r := range got.Reasons {
		if strings.Contains(r, "circular") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a circular-path reason line, got: %v", got.Reasons)
	}
}
