package identity

import (
	"time"

	"github.com/gkash/gkash_api/internal/verification"
)

// Stage is the registration progress derived from an identity record.
type Stage string

const (
	StageDocumentSubmitted Stage = "document_submitted"
	StagePhoneBound        Stage = "phone_bound"
	StagePhoneVerified     Stage = "phone_verified"
	StageCredentialSet     Stage = "credential_set"
)

// Identity is one registrant. The registration state lives entirely on it.
type Identity struct {
	ID                   string
	DisplayName          string
	NationalID           string
	DateOfBirth          string
	Phone                string
	PhoneVerified        bool
	CredentialHash       []byte
	CredentialSet        bool
	RegistrationComplete bool
	PendingSessionToken  string
	Verification         verification.Record
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Authenticatable reports whether the identity may log in.
func (i Identity) Authenticatable() bool {
	return i.CredentialSet && i.RegistrationComplete
}

// Stage reports how far registration has progressed.
func (i Identity) Stage() Stage {
	switch {
	case i.Authenticatable():
		return StageCredentialSet
	case i.Phone != "" && i.PhoneVerified:
		return StagePhoneVerified
	case i.Phone != "":
		return StagePhoneBound
	default:
		return StageDocumentSubmitted
	}
}

// Summary is the public view of an identity.
type Summary struct {
	ID                   string              `json:"id"`
	DisplayName          string              `json:"display_name"`
	NationalID           string              `json:"national_id,omitempty"`
	DateOfBirth          string              `json:"date_of_birth,omitempty"`
	Phone                string              `json:"phone_number,omitempty"`
	PhoneVerified        bool                `json:"phone_verified"`
	RegistrationComplete bool                `json:"registration_complete"`
	Stage                Stage               `json:"stage"`
	VerificationStatus   verification.Status `json:"verification_status"`
	VerificationScore    int                 `json:"verification_score"`
	CreatedAt            time.Time           `json:"created_at"`
}

// Summary builds the public view.
func (i Identity) Summary() Summary {
	status := i.Verification.Status
	if status == "" {
		status = verification.StatusNotSubmitted
	}
	return Summary{
		ID:                   i.ID,
		DisplayName:          i.DisplayName,
		NationalID:           i.NationalID,
		DateOfBirth:          i.DateOfBirth,
		Phone:                i.Phone,
		PhoneVerified:        i.PhoneVerified,
		RegistrationComplete: i.RegistrationComplete,
		Stage:                i.Stage(),
		VerificationStatus:   status,
		VerificationScore:    i.Verification.Score,
		CreatedAt:            i.CreatedAt,
	}
}

// PhoneUpdate is the result of the phone binding step.
type PhoneUpdate struct {
	Phone    string
	Verified bool
	// NextToken replaces the pending session token.
	NextToken string
}
