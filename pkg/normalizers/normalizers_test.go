package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims and collapses whitespace",
			input:    "  سالم   محمد  ",
			expected: "سالم محمد",
		},
		{
			name:     "strips harakat",
			input:    "مُحَمَّد",
			expected: "محمد",
		},
		{
			name:     "strips tatweel",
			input:    "سـالم",
			expected: "سالم",
		},
		{
			name:     "folds hamza alef to bare alef",
			input:    "أحمد",
			expected: "احمد",
		},
		{
			name:     "folds alef with madda",
			input:    "آمنة",
			expected: "امنه",
		},
		{
			name:     "folds taa marbuta to heh",
			input:    "فاطمة",
			expected: "فاطمه",
		},
		{
			name:     "folds alef maqsura to yeh",
			input:    "مصطفى",
			expected: "مصطفي",
		},
		{
			name:     "folds yeh with hamza",
			input:    "هانئ",
			expected: "هاني",
		},
		{
			name:     "drops standalone hamza",
			input:    "اسماء",
			expected: "اسما",
		},
		{
			name:     "lowercases latin input",
			input:    "  Salem  ",
			expected: "salem",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace only",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestNormalizeName_Idempotent(t *testing.T) {
	inputs := []string{"", "أحمد", "مُحَمَّد", "  عبد الله  ", "فاطمة", "Salem Jones", "سـالم"}
	for _, in := range inputs {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "normalize must be idempotent for %q", in)
	}
}

func TestNormalizeName_HamzaVariantsConverge(t *testing.T) {
	assert.Equal(t, NormalizeName("احمد"), NormalizeName("أحمد"))
	assert.Equal(t, NormalizeName("إبراهيم"), NormalizeName("ابراهيم"))
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "variant folds to family canonical",
			input:    "حمود",
			expected: "محمد",
		},
		{
			name:     "hamza spelling of variant still folds",
			input:    "أحمد",
			expected: "محمد",
		},
		{
			name:     "canonical maps to itself",
			input:    "محمد",
			expected: "محمد",
		},
		{
			name:     "spaced compound variant folds",
			input:    "عبد الله",
			expected: "عبدالله",
		},
		{
			name:     "unknown name passes through normalized",
			input:    "طارق",
			expected: "طارق",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Canonicalize(tt.input))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	for _, in := range []string{"حمود", "محمد", "أحمد", "عبد الله", "طارق", ""} {
		once := Canonicalize(in)
		assert.Equal(t, once, Canonicalize(once))
	}
}

func TestSameFamily(t *testing.T) {
	assert.True(t, SameFamily(NormalizeName("محمود"), NormalizeName("حمود")))
	assert.True(t, SameFamily(NormalizeName("فطوم"), NormalizeName("فاطمة")))
	assert.False(t, SameFamily(NormalizeName("محمد"), NormalizeName("يوسف")))
	assert.False(t, SameFamily(NormalizeName("طارق"), NormalizeName("راشد")))
}

func TestSplitCompoundName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		prefix    string
		remainder string
		ok        bool
	}{
		{
			name:      "glued abd compound",
			input:     "عبدالله",
			prefix:    "عبد",
			remainder: "الله",
			ok:        true,
		},
		{
			name:      "glued abd alrahman",
			input:     "عبدالرحمن",
			prefix:    "عبد",
			remainder: "الرحمن",
			ok:        true,
		},
		{
			name:      "glued abu compound",
			input:     "ابوبكر",
			prefix:    "ابو",
			remainder: "بكر",
			ok:        true,
		},
		{
			name:  "spaced compound is not split",
			input: "عبد الله",
			ok:    false,
		},
		{
			name:  "plain name is not split",
			input: "سالم",
			ok:    false,
		},
		{
			name:  "empty input",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, remainder, ok := SplitCompoundName(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.prefix, prefix)
				assert.Equal(t, tt.remainder, remainder)
			}
		})
	}
}

func TestCoreName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips tribal al prefix token",
			input:    "ال سعيد",
			expected: "سعيد",
		},
		{
			name:     "strips bin token",
			input:    "بن راشد",
			expected: "راشد",
		},
		{
			name:     "strips stacked prefixes",
			input:    "بن ال راشد",
			expected: "راشد",
		},
		{
			name:     "strips glued article on single token",
			input:    "السعيد",
			expected: "سعيد",
		},
		{
			name:     "plain name unchanged",
			input:    "سالم",
			expected: "سالم",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CoreName(tt.input))
		})
	}
}

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "محمد", ApplyChain("  حَمود ", "aname_canonical"))
	assert.Equal(t, "0501234567", ApplyChain(" 050-123-4567 ", "nphone"))
	assert.Equal(t, "unchanged", ApplyChain("unchanged", "not-a-normalizer"))
}
