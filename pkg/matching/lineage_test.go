package matching

import (
	"fmt"
	"testing"

	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher() *LineageMatcher {
	return NewLineageMatcher(NewScorer(0), DefaultLineageMatcherConfig())
}

func member(id, first, father, grandfather string) *models.Member {
	return &models.Member{
		ID:              id,
		FirstName:       first,
		FatherName:      father,
		GrandfatherName: grandfather,
	}
}

func TestLineageMatcher_FatherNameMatch(t *testing.T) {
	matcher := newTestMatcher()
	corpus := []*models.Member{
		member("m1", "محمد", "عبدالله", "سليمان"),
		member("m2", "طارق", "راشد", "فهد"),
	}

	input := models.NameInput{FirstName: "سالم", FatherName: "محمد"}
	result := matcher.FindMatches(input, corpus)

	candidates := append(result.ExactMatches, result.HighMatches...)
	require.Len(t, candidates, 1)
	assert.Equal(t, "m1", candidates[0].Member.ID)
	assert.GreaterOrEqual(t, candidates[0].Score, 95)

	require.NotEmpty(t, candidates[0].Reasons)
	assert.Contains(t, candidates[0].Reasons[0], "father name")
}

func TestLineageMatcher_DeeperGenerationsWeighLess(t *testing.T) {
	// low cutoff so even the father-level miss stays visible for comparison
	matcher := NewLineageMatcher(NewScorer(0), LineageMatcherConfig{
		LowTierCutoff:     20,
		MaxMatchesPerTier: 5,
		MaxLowTierMatches: 5,
	})

	input := models.NameInput{
		FirstName:            "سالم",
		FatherName:           "محمد",
		GrandfatherName:      "عبدالله",
		GreatGrandfatherName: "سليمان",
	}

	// father level mismatch, deeper levels perfect
	fatherMiss := member("a", "طارق", "عبدالله", "سليمان")
	// great-grandfather level mismatch, shallower levels perfect
	deepMiss := member("b", "محمد", "عبدالله", "طارق")

	resultFatherMiss := matcher.FindMatches(input, []*models.Member{fatherMiss})
	resultDeepMiss := matcher.FindMatches(input, []*models.Member{deepMiss})

	scoreOf := func(r *models.MatchResult) int {
		all := append(append(append(r.ExactMatches, r.HighMatches...), r.MediumMatches...), r.LowMatches...)
		require.Len(t, all, 1)
		return all[0].Score
	}

	assert.Greater(t, scoreOf(resultDeepMiss), scoreOf(resultFatherMiss),
		"a mismatch at the immediate-father level must cost more than one at the deepest level")
}

func TestLineageMatcher_MissingInputLevelsAreSkipped(t *testing.T) {
	matcher := newTestMatcher()
	corpus := []*models.Member{member("m1", "محمد", "", "")}

	// no grandfather or great-grandfather supplied: the candidate's empty
	// deeper chain must not drag the score down
	input := models.NameInput{FirstName: "سالم", FatherName: "محمد"}
	result := matcher.FindMatches(input, corpus)

	require.Len(t, result.ExactMatches, 1)
	assert.Equal(t, 100, result.ExactMatches[0].Score)
}

func TestLineageMatcher_BucketCaps(t *testing.T) {
	matcher := newTestMatcher()

	corpus := make([]*models.Member, 0, 8)
	for i := 0; i < 8; i++ {
		corpus = append(corpus, member(fmt.Sprintf("m%d", i), "محمد", "", ""))
	}

	input := models.NameInput{FirstName: "سالم", FatherName: "محمد"}
	result := matcher.FindMatches(input, corpus)

	assert.Len(t, result.ExactMatches, 5)
	assert.Len(t, result.Explanations, 8)
}

func TestLineageMatcher_ExplanationsCappedAtTen(t *testing.T) {
	matcher := newTestMatcher()

	corpus := make([]*models.Member, 0, 15)
	for i := 0; i < 15; i++ {
		corpus = append(corpus, member(fmt.Sprintf("m%d", i), "محمد", "", ""))
	}

	input := models.NameInput{FirstName: "سالم", FatherName: "محمد"}
	result := matcher.FindMatches(input, corpus)

	assert.Len(t, result.Explanations, 10)
}

func TestLineageMatcher_OrderedByScore(t *testing.T) {
	matcher := newTestMatcher()
	corpus := []*models.Member{
		member("weak", "محمود", "طارق", ""),   // variation only
		member("strong", "محمد", "عبدالله", ""), // exact father + grandfather
	}

	input := models.NameInput{FirstName: "سالم", FatherName: "محمد", GrandfatherName: "عبدالله"}
	result := matcher.FindMatches(input, corpus)

	all := append(append(append(result.ExactMatches, result.HighMatches...), result.MediumMatches...), result.LowMatches...)
	require.NotEmpty(t, all)
	assert.Equal(t, "strong", all[0].Member.ID)
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
	}
}

func TestLineageMatcher_NoMatchBelowCutoff(t *testing.T) {
	matcher := newTestMatcher()
	corpus := []*models.Member{member("m1", "قاسم", "منصور", "")}

	input := models.NameInput{FirstName: "سالم", FatherName: "طارق"}
	result := matcher.FindMatches(input, corpus)

	assert.Zero(t, result.Total())
}
