package matching

import (
	"fmt"
	"sort"

	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/normalizers"
)

// Contribution weights for the duplicate composite score. Name similarity
// dominates; demographic agreement can lift a borderline pair over the
// threshold but never flags a pair on its own.
const (
	nameContributionMax = 60
	birthYearExactBonus = 15
	birthYearNearBonus  = 8
	birthYearNearWindow = 2
	sameGenerationBonus = 10
	samePhoneBonus      = 10
	sameCityBonus       = 5
)

// Scanner performs corpus-wide pairwise duplicate detection. It is read-only;
// persisting flags from its results is the caller's responsibility.
type Scanner struct {
	scorer *Scorer
}

func NewScanner(scorer *Scorer) *Scanner {
	return &Scanner{scorer: scorer}
}

// Scan compares every unordered pair of distinct members and returns the
// pairs whose composite score meets the threshold, ordered by score
// descending. Each pair appears at most once. O(n²) pairwise comparison;
// acceptable for corpora in the low thousands.
func (s *Scanner) Scan(corpus []*models.Member, threshold int) []models.DuplicatePair {
	var pairs []models.DuplicatePair

	for i := 0; i < len(corpus); i++ {
		for j := i + 1; j < len(corpus); j++ {
			a, b := corpus[i], corpus[j]
			if a.ID == b.ID {
				continue
			}

			score, reasons := s.scorePair(a, b)
			if score < threshold {
				continue
			}

			source, target := a.ID, b.ID
			if target < source {
				source, target = target, source
			}
			pairs = append(pairs, models.DuplicatePair{
				SourceMemberID: source,
				TargetMemberID: target,
				Score:          score,
				Reasons:        reasons,
			})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score > pairs[j].Score
	})
	return pairs
}

func (s *Scanner) scorePair(a, b *models.Member) (int, []string) {
	var score int
	var reasons []string

	nameMatch := s.scorer.Match(a.FullName(), b.FullName())
	if nameMatch.Similarity > 0 {
		contribution := nameMatch.Similarity * nameContributionMax / 100
		score += contribution
		if nameMatch.IsMatch {
			reasons = append(reasons, fmt.Sprintf("full names agree (%s, score %d)", nameMatch.MatchType, nameMatch.Similarity))
		}
	}

	if a.BirthYear != nil && b.BirthYear != nil {
		diff := *a.BirthYear - *b.BirthYear
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff == 0:
			score += birthYearExactBonus
			reasons = append(reasons, fmt.Sprintf("same birth year (%d)", *a.BirthYear))
		case diff <= birthYearNearWindow:
			score += birthYearNearBonus
			reasons = append(reasons, fmt.Sprintf("birth years within %d years", diff))
		}
	}

	if a.Generation == b.Generation {
		score += sameGenerationBonus
		reasons = append(reasons, fmt.Sprintf("same generation (%d)", a.Generation))
	}

	phoneA := normalizers.NormalizePhone(a.Phone)
	phoneB := normalizers.NormalizePhone(b.Phone)
	if phoneA != "" && phoneA == phoneB {
		score += samePhoneBonus
		reasons = append(reasons, "same phone number")
	}

	cityA := normalizers.NormalizeName(a.City)
	cityB := normalizers.NormalizeName(b.City)
	if cityA != "" && cityA == cityB {
		score += sameCityBonus
		reasons = append(reasons, fmt.Sprintf("same city (%s)", a.City))
	}

	return score, reasons
}
