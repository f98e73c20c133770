package models

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Member is a person in the family tree. The name chain (first, father,
// grandfather, great-grandfather) is stored denormalized so matching can run
// without walking FatherID links.
type Member struct {
	ID                   string    `json:"id" db:"id"`
	FirstName            string    `json:"firstName" db:"first_name"`
	FatherName           string    `json:"fatherName" db:"father_name"`
	GrandfatherName      string    `json:"grandfatherName" db:"grandfather_name"`
	GreatGrandfatherName string    `json:"greatGrandfatherName" db:"great_grandfather_name"`
	FamilyName           string    `json:"familyName" db:"family_name"`
	Gender               Gender    `json:"gender" db:"gender"`
	Generation           int       `json:"generation" db:"generation"`
	FatherID             *string   `json:"fatherId,omitempty" db:"father_id"`
	BirthYear            *int      `json:"birthYear,omitempty" db:"birth_year"`
	DeathYear            *int      `json:"deathYear,omitempty" db:"death_year"`
	City                 string    `json:"city" db:"city"`
	Occupation           string    `json:"occupation" db:"occupation"`
	Phone                string    `json:"phone" db:"phone"`
	Email                string    `json:"email" db:"email"`
	Biography            string    `json:"biography" db:"biography"`
	PhotoURL             string    `json:"photoUrl" db:"photo_url"`
	CreatedAt            time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time `json:"updatedAt" db:"updated_at"`
}

// FullName joins the stored name chain, skipping empty links.
func (m *Member) FullName() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{m.FirstName, m.FatherName, m.GrandfatherName, m.GreatGrandfatherName, m.FamilyName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// NameInput is the name chain submitted for lineage matching. First and
// father names are required; deeper ancestor names sharpen the match when
// present.
type NameInput struct {
	FirstName            string `json:"firstName" validate:"required"`
	FatherName           string `json:"fatherName" validate:"required"`
	GrandfatherName      string `json:"grandfatherName"`
	GreatGrandfatherName string `json:"greatGrandfatherName"`
	FamilyName           string `json:"familyName"`
}

type CreateMemberRequest struct {
	FirstName            string  `json:"firstName" validate:"required"`
	FatherName           string  `json:"fatherName"`
	GrandfatherName      string  `json:"grandfatherName"`
	GreatGrandfatherName string  `json:"greatGrandfatherName"`
	FamilyName           string  `json:"familyName"`
	Gender               Gender  `json:"gender" validate:"required,oneof=male female"`
	Generation           int     `json:"generation" validate:"gte=0"`
	FatherID             *string `json:"fatherId" validate:"omitempty,uuid"`
	BirthYear            *int    `json:"birthYear"`
	DeathYear            *int    `json:"deathYear"`
	City                 string  `json:"city"`
	Occupation           string  `json:"occupation"`
	Phone                string  `json:"phone"`
	Email                string  `json:"email" validate:"omitempty,email"`
	Biography            string  `json:"biography"`
	PhotoURL             string  `json:"photoUrl"`
}

type UpdateMemberRequest struct {
	FirstName            *string `json:"firstName"`
	FatherName           *string `json:"fatherName"`
	GrandfatherName      *string `json:"grandfatherName"`
	GreatGrandfatherName *string `json:"greatGrandfatherName"`
	FamilyName           *string `json:"familyName"`
	Generation           *int    `json:"generation" validate:"omitempty,gte=0"`
	FatherID             *string `json:"fatherId" validate:"omitempty,uuid"`
	BirthYear            *int    `json:"birthYear"`
	DeathYear            *int    `json:"deathYear"`
	City                 *string `json:"city"`
	Occupation           *string `json:"occupation"`
	Phone                *string `json:"phone"`
	Email                *string `json:"email" validate:"omitempty,email"`
	Biography            *string `json:"biography"`
	PhotoURL             *string `json:"photoUrl"`
}
