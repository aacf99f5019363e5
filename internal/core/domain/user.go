package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sex is the self-declared sex of a contributor.
type Sex string

const (
	SexMale   Sex = "Homme"
	SexFemale Sex = "Femme"
	SexOther  Sex = "Autre"
)

func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

const userIDPrefix = "user"

// User is a contributor or administrator account.
type User struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	LastName       string    `json:"nom"`
	FirstName      string    `json:"prenom"`
	Age            int       `json:"age"`
	Sex            Sex       `json:"sexe"`
	SpokenLanguage string    `json:"langue_parlee"`
	Province       string    `json:"province"`
	City           string    `json:"ville_village"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	IsAdmin        bool      `json:"is_admin"`
	IsApproved     bool      `json:"is_approved"`
	AcceptedTerms  bool      `json:"accepted_terms"`
	CreatedAt      time.Time `json:"created_at"`
}

// FullName renders "prenom nom", the order used on every admin screen and export.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Location renders "ville_village, province".
func (u *User) Location() string {
	return u.City + ", " + u.Province
}

// FormatUserID builds the human-readable sequential identifier user<N>.
func FormatUserID(n int64) string {
	return fmt.Sprintf("%s%d", userIDPrefix, n)
}

// ParseUserIDSuffix extracts N from user<N>.
func ParseUserIDSuffix(id string) (int64, bool) {
	if !strings.HasPrefix(id, userIDPrefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, userIDPrefix), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
