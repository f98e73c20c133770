package normalizers

import "sync"

// nameFamilies lists canonical name families: a canonical spelling plus the
// alternate spellings and nicknames treated as equivalent for matching.
// Variants are written in everyday spelling; both sides are normalized when
// the reverse lookup is built, so hamza and taa-marbuta differences in this
// table are harmless.
var nameFamilies = map[string][]string{
	"محمد":     {"احمد", "محمود", "حمود", "حمد", "حمدان", "حميد"},
	"عبدالله":  {"عبد الله", "عبدالة", "عبيد"},
	"عبدالرحمن": {"عبد الرحمن", "دحمان"},
	"عبدالعزيز": {"عبد العزيز", "عزوز"},
	"ابراهيم":  {"إبراهيم", "برهوم", "براهيم"},
	"اسماعيل":  {"إسماعيل", "سماعيل", "سمعو"},
	"يوسف":     {"يوسوف", "يوسيف", "جوزيف"},
	"عثمان":    {"عتمان", "عصمان"},
	"عائشة":    {"عايشة", "عيشة", "عيوش"},
	"فاطمة":    {"فاطمه", "فطوم", "فطيمة", "فاطما"},
	"خديجة":    {"خديجه", "خدوج", "خديدجة"},
	"زينب":     {"زينة", "زنوبة"},
	"مريم":     {"مريام", "ميريام", "ميرا"},
	"سليمان":   {"سلمان", "سليم", "سلوم"},
	"صالح":     {"صليح", "صويلح"},
	"حسين":     {"حسون", "حسينو"},
	"حسن":      {"حسني", "حسنين"},
}

var (
	variantToCanonical map[string]string
	variationsOnce     sync.Once
)

func buildVariationTable() {
	variantToCanonical = make(map[string]string, len(nameFamilies)*4)
	for canonical, variants := range nameFamilies {
		normCanonical := NormalizeName(canonical)
		variantToCanonical[normCanonical] = normCanonical
		for _, v := range variants {
			variantToCanonical[NormalizeName(v)] = normCanonical
		}
	}
}

// CanonicalFor returns the canonical family form for a normalized name, and
// whether the name belongs to any family.
func CanonicalFor(normalized string) (string, bool) {
	variationsOnce.Do(buildVariationTable)
	canonical, ok := variantToCanonical[normalized]
	return canonical, ok
}

// Canonicalize normalizes a raw name and folds it to its canonical family
// form when it is a known variant. Names outside every family pass through
// normalized but otherwise untouched.
func Canonicalize(raw string) string {
	normalized := NormalizeName(raw)
	if canonical, ok := CanonicalFor(normalized); ok {
		return canonical
	}
	return normalized
}

// SameFamily reports whether two normalized names canonicalize to the same
// family, or one is the other's canonical form.
func SameFamily(a, b string) bool {
	ca, okA := CanonicalFor(a)
	cb, okB := CanonicalFor(b)
	if okA && okB {
		return ca == cb
	}
	if okA {
		return ca == b
	}
	if okB {
		return cb == a
	}
	return false
}
