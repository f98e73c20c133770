package models

// MatchType records which stage of the similarity cascade produced a score.
type MatchType string

const (
	MatchTypeExact      MatchType = "exact"
	MatchTypeNormalized MatchType = "normalized"
	MatchTypeVariation  MatchType = "variation"
	MatchTypePhonetic   MatchType = "phonetic"
	MatchTypeFuzzy      MatchType = "fuzzy"
	MatchTypeNone       MatchType = "none"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// NameMatch is the outcome of comparing two single names.
type NameMatch struct {
	IsMatch    bool       `json:"isMatch"`
	Similarity int        `json:"similarity"`
	MatchType  MatchType  `json:"matchType"`
	Confidence Confidence `json:"confidence"`
}

type MatchTier string

const (
	TierExact  MatchTier = "exact"
	TierHigh   MatchTier = "high"
	TierMedium MatchTier = "medium"
	TierLow    MatchTier = "low"
)

// MatchCandidate is a corpus member scored against a submitted name chain.
type MatchCandidate struct {
	Member  *Member   `json:"member"`
	Score   int       `json:"score"`
	Tier    MatchTier `json:"tier"`
	Reasons []string  `json:"reasons"`
}

// MatchResult buckets candidates by tier. Each bucket is capped and sorted by
// score descending; Explanations carries human-readable lines for the top
// candidates overall.
type MatchResult struct {
	ExactMatches  []MatchCandidate `json:"exactMatches"`
	HighMatches   []MatchCandidate `json:"highMatches"`
	MediumMatches []MatchCandidate `json:"mediumMatches"`
	LowMatches    []MatchCandidate `json:"lowMatches"`
	Explanations  []string         `json:"explanations"`
}

// Total returns how many candidates landed in any bucket.
func (r *MatchResult) Total() int {
	return len(r.ExactMatches) + len(r.HighMatches) + len(r.MediumMatches) + len(r.LowMatches)
}
