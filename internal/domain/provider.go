package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus tracks credential review for a provider.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "PENDING"
	VerificationStatusVerified VerificationStatus = "VERIFIED"
	VerificationStatusRejected VerificationStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected:
		return true
	}
	return false
}

func (s VerificationStatus) String() string {
	return string(s)
}

// Provider is a registered healthcare provider.
type Provider struct {
	ID                 uuid.UUID
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	Specialization     string
	LicenseNumber      string
	YearsOfExperience  int
	VerificationStatus VerificationStatus
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FullName joins first and last name.
func (p *Provider) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
