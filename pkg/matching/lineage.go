package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Khalid-A/sidra/pkg/models"
)

// Generation weights for the composite lineage score. The immediate father
// level dominates; each deeper generation counts half the one above it.
// Levels missing from the input are skipped and the remaining weights are
// renormalized, so sparse input is not penalized.
const (
	fatherWeight           = 1.0
	grandfatherWeight      = 0.5
	greatGrandfatherWeight = 0.25
)

const maxExplanations = 10

type LineageMatcherConfig struct {
	LowTierCutoff     int // minimum composite score to keep a candidate at all
	MaxMatchesPerTier int // cap for the exact, high, and medium buckets
	MaxLowTierMatches int // cap for the low bucket
}

func DefaultLineageMatcherConfig() LineageMatcherConfig {
	return LineageMatcherConfig{
		LowTierCutoff:     55,
		MaxMatchesPerTier: 5,
		MaxLowTierMatches: 3,
	}
}

// LineageMatcher proposes lineage attachments: given the ancestor names a new
// person states, it scores every corpus member as a prospective father.
type LineageMatcher struct {
	scorer *Scorer
	config LineageMatcherConfig
}

func NewLineageMatcher(scorer *Scorer, config LineageMatcherConfig) *LineageMatcher {
	if config.LowTierCutoff <= 0 {
		config = DefaultLineageMatcherConfig()
	}
	return &LineageMatcher{scorer: scorer, config: config}
}

// FindMatches scores the corpus against the stated ancestor chain and buckets
// candidates by tier. The candidate is a prospective father, so the input's
// father name is compared against the candidate's own first name and each
// deeper input level against the candidate's chain shifted by one.
func (m *LineageMatcher) FindMatches(input models.NameInput, corpus []*models.Member) *models.MatchResult {
	all := make([]models.MatchCandidate, 0, len(corpus))

	for _, member := range corpus {
		candidate, ok := m.scoreCandidate(input, member)
		if !ok {
			continue
		}
		all = append(all, candidate)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	result := &models.MatchResult{
		ExactMatches:  []models.MatchCandidate{},
		HighMatches:   []models.MatchCandidate{},
		MediumMatches: []models.MatchCandidate{},
		LowMatches:    []models.MatchCandidate{},
	}

	for _, c := range all {
		switch c.Tier {
		case models.TierExact:
			if len(result.ExactMatches) < m.config.MaxMatchesPerTier {
				result.ExactMatches = append(result.ExactMatches, c)
			}
		case models.TierHigh:
			if len(result.HighMatches) < m.config.MaxMatchesPerTier {
				result.HighMatches = append(result.HighMatches, c)
			}
		case models.TierMedium:
			if len(result.MediumMatches) < m.config.MaxMatchesPerTier {
				result.MediumMatches = append(result.MediumMatches, c)
			}
		case models.TierLow:
			if len(result.LowMatches) < m.config.MaxLowTierMatches {
				result.LowMatches = append(result.LowMatches, c)
			}
		}
	}

	for i, c := range all {
		if i == maxExplanations {
			break
		}
		result.Explanations = append(result.Explanations, m.GetMatchExplanation(c))
	}

	return result
}

func (m *LineageMatcher) scoreCandidate(input models.NameInput, member *models.Member) (models.MatchCandidate, bool) {
	levels := []struct {
		label     string
		input     string
		candidate string
		weight    float64
	}{
		{"father", input.FatherName, member.FirstName, fatherWeight},
		{"grandfather", input.GrandfatherName, member.FatherName, grandfatherWeight},
		{"great-grandfather", input.GreatGrandfatherName, member.GrandfatherName, greatGrandfatherWeight},
	}

	var weightedSum, totalWeight float64
	var reasons []string

	for _, level := range levels {
		if strings.TrimSpace(level.input) == "" {
			continue
		}
		totalWeight += level.weight

		match := m.scorer.Match(level.input, level.candidate)
		weightedSum += level.weight * float64(match.Similarity)
		if match.IsMatch {
			reasons = append(reasons, fmt.Sprintf(
				"%s name %q matched %q (%s, %s confidence, score %d)",
				level.label, level.input, level.candidate, match.MatchType, match.Confidence, match.Similarity,
			))
		}
	}

	if totalWeight == 0 {
		return models.MatchCandidate{}, false
	}

	score := int(weightedSum/totalWeight + 0.5)
	tier, ok := m.tierFor(score)
	if !ok {
		return models.MatchCandidate{}, false
	}

	return models.MatchCandidate{
		Member:  member,
		Score:   score,
		Tier:    tier,
		Reasons: reasons,
	}, true
}

func (m *LineageMatcher) tierFor(score int) (models.MatchTier, bool) {
	switch {
	case score >= 95:
		return models.TierExact, true
	case score >= 85:
		return models.TierHigh, true
	case score >= 70:
		return models.TierMedium, true
	case score >= m.config.LowTierCutoff:
		return models.TierLow, true
	default:
		return "", false
	}
}

// GetMatchExplanation renders a single human-readable justification line for
// a candidate.
func (m *LineageMatcher) GetMatchExplanation(c models.MatchCandidate) string {
	name := ""
	if c.Member != nil {
		name = c.Member.FullName()
	}
	if len(c.Reasons) == 0 {
		return fmt.Sprintf("%s (score %d, %s tier): partial name agreement only", name, c.Score, c.Tier)
	}
	return fmt.Sprintf("%s (score %d, %s tier): %s", name, c.Score, c.Tier, strings.Join(c.Reasons, "; "))
}
