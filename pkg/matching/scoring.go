// Package matching scores name similarity and proposes lineage and duplicate
// candidates over the member corpus.
package matching

import (
	"math"
	"strings"

	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/normalizers"
)

// DefaultNamesMatchThreshold is the boolean-match cutoff used when no
// threshold is configured.
const DefaultNamesMatchThreshold = 80

const phoneticDigestLength = 4

// phoneticGroups maps each Arabic consonant to an articulation-group code.
// Vowels and semivowels (ا و ي) are absent and drop out of the digest.
var phoneticGroups = map[rune]byte{
	// gutturals
	'ه': '1', 'ح': '1', 'خ': '1', 'ع': '1', 'غ': '1',
	// labials
	'ب': '2', 'ف': '2', 'م': '2',
	// dentals
	'د': '3', 'ذ': '3', 'ت': '3', 'ث': '3', 'ط': '3', 'ظ': '3',
	// sibilants
	'ز': '4', 'س': '4', 'ش': '4', 'ص': '4', 'ض': '4', 'ج': '4',
	// liquids
	'ل': '5', 'ر': '5', 'ن': '5',
	// velars
	'ك': '6', 'ق': '6',
}

// Scorer compares two raw names through a cascade of increasingly loose
// rules: exact, normalized, variation family, phonetic, edit distance.
type Scorer struct {
	namesMatchThreshold int
}

func NewScorer(namesMatchThreshold int) *Scorer {
	if namesMatchThreshold <= 0 {
		namesMatchThreshold = DefaultNamesMatchThreshold
	}
	return &Scorer{namesMatchThreshold: namesMatchThreshold}
}

// Match classifies the similarity between two raw names. The first rule that
// applies wins; empty input on either side never matches.
func (s *Scorer) Match(a, b string) models.NameMatch {
	normA := normalizers.NormalizeName(a)
	normB := normalizers.NormalizeName(b)
	if normA == "" || normB == "" {
		return models.NameMatch{MatchType: models.MatchTypeNone}
	}

	if a == b {
		return models.NameMatch{IsMatch: true, Similarity: 100, MatchType: models.MatchTypeExact, Confidence: models.ConfidenceHigh}
	}

	if normA == normB {
		return models.NameMatch{IsMatch: true, Similarity: 100, MatchType: models.MatchTypeNormalized, Confidence: models.ConfidenceHigh}
	}

	if normalizers.SameFamily(normA, normB) || compoundEqual(normA, normB) {
		return models.NameMatch{IsMatch: true, Similarity: 95, MatchType: models.MatchTypeVariation, Confidence: models.ConfidenceHigh}
	}

	if digestA := PhoneticDigest(normA); digestA != "" && digestA == PhoneticDigest(normB) {
		return models.NameMatch{IsMatch: true, Similarity: 85, MatchType: models.MatchTypePhonetic, Confidence: models.ConfidenceMedium}
	}

	score := fuzzyScore(normA, normB)
	switch {
	case score >= 85:
		return models.NameMatch{IsMatch: true, Similarity: score, MatchType: models.MatchTypeFuzzy, Confidence: models.ConfidenceMedium}
	case score >= 70:
		return models.NameMatch{IsMatch: true, Similarity: score, MatchType: models.MatchTypeFuzzy, Confidence: models.ConfidenceLow}
	default:
		return models.NameMatch{Similarity: score, MatchType: models.MatchTypeNone}
	}
}

// Similarity returns the 0-100 similarity score between two raw names.
func (s *Scorer) Similarity(a, b string) int {
	return s.Match(a, b).Similarity
}

// NamesMatch reports whether two names meet the configured match threshold.
func (s *Scorer) NamesMatch(a, b string) bool {
	return s.Similarity(a, b) >= s.namesMatchThreshold
}

// fuzzyScore derives a similarity percentage from edit distance over
// normalized forms.
func fuzzyScore(normA, normB string) int {
	maxLen := len([]rune(normA))
	if l := len([]rune(normB)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := LevenshteinDistance(normA, normB)
	return int(math.Round((1 - float64(dist)/float64(maxLen)) * 100))
}

// compoundEqual matches spaced against unspaced compound spellings, e.g.
// عبد الله against عبدالله.
func compoundEqual(normA, normB string) bool {
	despacedA := strings.ReplaceAll(normA, " ", "")
	despacedB := strings.ReplaceAll(normB, " ", "")
	if despacedA != despacedB {
		return false
	}
	_, _, okA := normalizers.SplitCompoundName(despacedA)
	return okA
}

// LevenshteinDistance computes unit-cost edit distance over runes using the
// classic two-row dynamic program.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// PhoneticDigest produces a fixed-length articulation-group code for a
// normalized name. Consecutive repeats collapse; names with no coded
// consonant yield an empty digest, which never matches.
func PhoneticDigest(normalized string) string {
	var b strings.Builder
	var last byte
	for _, r := range normalized {
		code, ok := phoneticGroups[r]
		if !ok {
			continue
		}
		if code == last {
			continue
		}
		b.WriteByte(code)
		last = code
		if b.Len() == phoneticDigestLength {
			break
		}
	}

	if b.Len() == 0 {
		return ""
	}
	digest := b.String()
	for len(digest) < phoneticDigestLength {
		digest += "0"
	}
	return digest
}
