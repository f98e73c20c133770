package matching

import (
	"testing"

	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/normalizers"
	"github.com/stretchr/testify/assert"
)

func TestScorer_Match(t *testing.T) {
	scorer := NewScorer(0)

	tests := []struct {
		name       string
		a          string
		b          string
		similarity int
		matchType  models.MatchType
		isMatch    bool
	}{
		{
			name:       "byte identical",
			a:          "محمد",
			b:          "محمد",
			similarity: 100,
			matchType:  models.MatchTypeExact,
			isMatch:    true,
		},
		{
			name:       "equal after normalization",
			a:          "أحمد",
			b:          "احمد",
			similarity: 100,
			matchType:  models.MatchTypeNormalized,
			isMatch:    true,
		},
		{
			name:       "diacritics normalize away",
			a:          "مُحَمَّد",
			b:          "محمد",
			similarity: 100,
			matchType:  models.MatchTypeNormalized,
			isMatch:    true,
		},
		{
			name:       "same variation family",
			a:          "محمود",
			b:          "حمود",
			similarity: 95,
			matchType:  models.MatchTypeVariation,
			isMatch:    true,
		},
		{
			name:       "variant against its canonical",
			a:          "احمد",
			b:          "محمد",
			similarity: 95,
			matchType:  models.MatchTypeVariation,
			isMatch:    true,
		},
		{
			name:       "spaced against glued compound",
			a:          "عبد الرحمن",
			b:          "عبدالرحمن",
			similarity: 95,
			matchType:  models.MatchTypeVariation,
			isMatch:    true,
		},
		{
			name:      "unrelated names",
			a:         "طارق",
			b:         "فاطمة",
			matchType: models.MatchTypeNone,
		},
		{
			name:      "empty left side",
			a:         "",
			b:         "محمد",
			matchType: models.MatchTypeNone,
		},
		{
			name:      "both empty",
			a:         "",
			b:         "",
			matchType: models.MatchTypeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := scorer.Match(tt.a, tt.b)
			assert.Equal(t, tt.isMatch, match.IsMatch)
			assert.Equal(t, tt.matchType, match.MatchType)
			if tt.similarity > 0 {
				assert.Equal(t, tt.similarity, match.Similarity)
			}
		})
	}
}

func TestScorer_Symmetry(t *testing.T) {
	scorer := NewScorer(0)
	pairs := [][2]string{
		{"محمد", "محمود"},
		{"سالم", "سليم"},
		{"أحمد", "احمد"},
		{"طارق", "فاطمة"},
		{"", "سالم"},
	}
	for _, p := range pairs {
		assert.Equal(t, scorer.Similarity(p[0], p[1]), scorer.Similarity(p[1], p[0]),
			"similarity(%q,%q) must be symmetric", p[0], p[1])
	}
}

func TestScorer_SelfSimilarity(t *testing.T) {
	scorer := NewScorer(0)
	for _, name := range []string{"محمد", "فاطمة", "عبد الله", "Salem"} {
		assert.Equal(t, 100, scorer.Similarity(name, name))
	}
}

func TestScorer_VariationFamilyScoresAtLeast95(t *testing.T) {
	scorer := NewScorer(0)
	families := [][2]string{
		{"محمد", "حمود"},
		{"فاطمة", "فطوم"},
		{"ابراهيم", "برهوم"},
	}
	for _, f := range families {
		assert.GreaterOrEqual(t, scorer.Similarity(f[0], f[1]), 95)
	}
}

func TestScorer_NamesMatch(t *testing.T) {
	scorer := NewScorer(80)
	assert.True(t, scorer.NamesMatch("محمد", "محمود"))
	assert.False(t, scorer.NamesMatch("طارق", "فاطمة"))
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"equal strings", "سالم", "سالم", 0},
		{"empty against empty", "", "", 0},
		{"empty against word", "", "سالم", 4},
		{"single substitution", "سالم", "سليم", 2},
		{"single insertion", "حمد", "حمدان", 2},
		{"latin", "kitten", "sitting", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestLevenshteinDistance_Bounds(t *testing.T) {
	pairs := [][2]string{{"سالم", "سليمان"}, {"محمد", "محمد"}, {"", "احمد"}, {"abc", "xyz"}}
	for _, p := range pairs {
		dist := LevenshteinDistance(p[0], p[1])
		maxLen := max(len([]rune(p[0])), len([]rune(p[1])))
		assert.LessOrEqual(t, dist, maxLen)
		if p[0] == p[1] {
			assert.Zero(t, dist)
		} else {
			assert.Positive(t, dist)
		}
	}
}

func TestPhoneticDigest(t *testing.T) {
	// same articulation pattern, different vowel letters
	a := PhoneticDigest(normalizers.NormalizeName("سليم"))
	b := PhoneticDigest(normalizers.NormalizeName("سلوم"))
	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)

	// repeats collapse
	assert.Equal(t, PhoneticDigest("سس"), PhoneticDigest("س"))

	// fixed length with zero padding
	assert.Len(t, PhoneticDigest("س"), 4)
	assert.Equal(t, "4000", PhoneticDigest("س"))

	// names with no coded consonants never match each other
	assert.Empty(t, PhoneticDigest("اوي"))
	assert.Empty(t, PhoneticDigest(""))
}
