package verification

import (
	"encoding/json"
	"time"
)

// Record is the verification sub-record stored on an identity.
type Record struct {
	DocumentImageURL string     `json:"document_image_url,omitempty"`
	SelfieImageURL   string     `json:"selfie_image_url,omitempty"`
	ExtractedText    string     `json:"extracted_text,omitempty"`
	Name             Field      `json:"name"`
	NationalID       Field      `json:"national_id"`
	DateOfBirth      Field      `json:"date_of_birth"`
	Checks           Checks     `json:"checks"`
	FaceInDocument   bool       `json:"face_in_document"`
	FaceInSelfie     bool       `json:"face_in_selfie"`
	Score            int        `json:"score"`
	Status           Status     `json:"status"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	DecidedAt        *time.Time `json:"decided_at,omitempty"`
}

// NotSubmitted is the record of an identity that never uploaded a document.
func NotSubmitted() Record {
	return Record{Status: StatusNotSubmitted}
}

// NewRecord scores ins with checks and stamps the decision at now.
func NewRecord(ins Inspection, images StoredImages, checks Checks, now time.Time) Record {
	result := Score(Signals{Checks: checks, FaceInDocument: ins.FaceInDocument, FaceInSelfie: ins.FaceInSelfie})
	submitted := now.UTC()
	decided := submitted
	return Record{
		DocumentImageURL: images.DocumentURL,
		SelfieImageURL:   images.SelfieURL,
		ExtractedText:    ins.Extraction.Text,
		Name:             ins.Extraction.Name,
		NationalID:       ins.Extraction.NationalID,
		DateOfBirth:      ins.Extraction.DateOfBirth,
		Checks:           checks,
		FaceInDocument:   ins.FaceInDocument,
		FaceInSelfie:     ins.FaceInSelfie,
		Score:            result.Score,
		Status:           result.Decision,
		SubmittedAt:      &submitted,
		DecidedAt:        &decided,
	}
}

// Verified reports whether the record was approved.
func (r Record) Verified() bool { return r.Status == StatusApproved }

func (c Checks) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}

func (c *Checks) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = ChecksFromMap(m)
	return nil
}
