// Package merging consolidates confirmed duplicate members into one record.
package merging

import (
	"strings"

	"github.com/Khalid-A/sidra/pkg/models"
)

type fieldOps struct {
	name    string
	isEmpty func(*models.Member) bool
	equal   func(a, b *models.Member) bool
	copy    func(dst, src *models.Member)
}

func stringField(name string, ptr func(*models.Member) *string) fieldOps {
	return fieldOps{
		name:    name,
		isEmpty: func(m *models.Member) bool { return strings.TrimSpace(*ptr(m)) == "" },
		equal:   func(a, b *models.Member) bool { return *ptr(a) == *ptr(b) },
		copy:    func(dst, src *models.Member) { *ptr(dst) = *ptr(src) },
	}
}

func intPtrField(name string, ptr func(*models.Member) **int) fieldOps {
	return fieldOps{
		name:    name,
		isEmpty: func(m *models.Member) bool { return *ptr(m) == nil },
		equal: func(a, b *models.Member) bool {
			va, vb := *ptr(a), *ptr(b)
			if va == nil || vb == nil {
				return va == vb
			}
			return *va == *vb
		},
		copy: func(dst, src *models.Member) {
			if v := *ptr(src); v != nil {
				value := *v
				*ptr(dst) = &value
			}
		},
	}
}

// mergeableFields are the demographic attributes a merge may carry over. The
// name chain, gender, generation, and fatherId are identity fields and are
// never merged automatically.
var mergeableFields = []fieldOps{
	stringField("phone", func(m *models.Member) *string { return &m.Phone }),
	stringField("city", func(m *models.Member) *string { return &m.City }),
	stringField("occupation", func(m *models.Member) *string { return &m.Occupation }),
	stringField("email", func(m *models.Member) *string { return &m.Email }),
	stringField("biography", func(m *models.Member) *string { return &m.Biography }),
	stringField("photo", func(m *models.Member) *string { return &m.PhotoURL }),
	intPtrField("birthYear", func(m *models.Member) **int { return &m.BirthYear }),
	intPtrField("deathYear", func(m *models.Member) **int { return &m.DeathYear }),
}

// FieldMerger applies a merge strategy over the mergeable attributes of a
// keep/remove member pair.
type FieldMerger struct{}

func NewFieldMerger() *FieldMerger {
	return &FieldMerger{}
}

// Merge mutates keep in place and returns the names of the fields that
// changed. keepIsSource tells the source-preferring strategies which side of
// the flag the keeper is.
//
// FILL_EMPTY copies a value from remove only into an empty keep field.
// PREFER_SOURCE takes the flag's source-side value whenever it is present,
// overwriting keep when keep is the target; PREFER_TARGET is symmetric.
func (fm *FieldMerger) Merge(keep, remove *models.Member, keepIsSource bool, strategy models.MergeStrategyType) []string {
	keepPreferred := true
	switch strategy {
	case models.MergeStrategyPreferSource:
		keepPreferred = keepIsSource
	case models.MergeStrategyPreferTarget:
		keepPreferred = !keepIsSource
	}

	var merged []string
	for _, f := range mergeableFields {
		if f.isEmpty(remove) || f.equal(keep, remove) {
			continue
		}
		if f.isEmpty(keep) || !keepPreferred {
			f.copy(keep, remove)
			merged = append(merged, f.name)
		}
	}
	return merged
}
