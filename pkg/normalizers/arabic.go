package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const tatweel = 'ـ'

// markStripper decomposes, drops combining marks (harakat, shadda, sukun),
// and recomposes. Built once; transform.Chain values are stateless to share.
var markStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// letterFolds maps every letter-variant family to one representative so
// spelling differences that carry no identity signal disappear before
// comparison.
var letterFolds = map[rune]rune{
	'أ': 'ا', // alef with hamza above
	'إ': 'ا', // alef with hamza below
	'آ': 'ا', // alef with madda
	'ٱ': 'ا', // alef wasla
	'ؤ': 'و', // waw with hamza
	'ئ': 'ي', // yeh with hamza
	'ى': 'ي', // alef maqsura
	'ی': 'ي', // Persian yeh
	'ے': 'ي', // Urdu yeh barree
	'ة': 'ه', // taa marbuta
	'ک': 'ك', // Persian kaf
}

// NormalizeName canonicalizes a raw name for comparison. The pipeline is
// trim, strip combining marks and tatweel, fold letter variants, lowercase,
// collapse whitespace. It is total and idempotent; it never fails.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	stripped, _, err := transform.String(markStripper, s)
	if err == nil {
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == tatweel || r == 'ء' {
			continue
		}
		if folded, ok := letterFolds[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}

	return CollapseWhitespace(strings.ToLower(b.String()))
}
