// Package verification turns signals about an uploaded identity document
// into a score and an accept/reject decision, and talks to the OCR, face
// detection and image hosting collaborators that produce those signals.
package verification

// Check names one document signal. The set is closed: adding a check
// changes NumChecks and therefore the score denominator in one place.
type Check int

const (
	CheckHasName Check = iota
	CheckHasIDNumber
	CheckHasDateOfBirth
	CheckHasDocumentKeywords

	NumChecks = int(CheckHasDocumentKeywords) + 1
)

var checkNames = [NumChecks]string{
	CheckHasName:             "has_name",
	CheckHasIDNumber:         "has_id_number",
	CheckHasDateOfBirth:      "has_date_of_birth",
	CheckHasDocumentKeywords: "has_document_keywords",
}

func (c Check) String() string {
	if c < 0 || int(c) >= NumChecks {
		return "unknown"
	}
	return checkNames[c]
}

// Checks holds the outcome of every check.
type Checks [NumChecks]bool

// Passed counts the checks that came back true.
func (c Checks) Passed() int {
	n := 0
	for _, ok := range c {
		if ok {
			n++
		}
	}
	return n
}

// Map renders the checks keyed by name for responses and storage.
func (c Checks) Map() map[string]bool {
	m := make(map[string]bool, NumChecks)
	for i, ok := range c {
		m[Check(i).String()] = ok
	}
	return m
}

// ChecksFromMap is the inverse of Map; unknown keys are ignored.
func ChecksFromMap(m map[string]bool) Checks {
	var c Checks
	for i := range c {
		c[i] = m[Check(i).String()]
	}
	return c
}

// Status is the lifecycle of a verification record.
type Status string

const (
	StatusNotSubmitted Status = "not_submitted"
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
)

const (
	// ApprovalThreshold is the minimum score for an approval.
	ApprovalThreshold = 60
	faceBonus         = 10
	maxScore          = 100
)

// Signals are the inputs to Score.
type Signals struct {
	Checks         Checks
	FaceInDocument bool
	FaceInSelfie   bool
}

// Result is the scorer's decision.
type Result struct {
	Score    int
	Decision Status
}

// Approved reports whether the decision is an approval.
func (r Result) Approved() bool { return r.Decision == StatusApproved }

// Score computes the confidence score and decision. Both face signals are
// hard gates regardless of the score.
func Score(s Signals) Result {
	score := s.Checks.Passed() * 100 / NumChecks
	if s.FaceInDocument {
		score += faceBonus
	}
	if s.FaceInSelfie {
		score += faceBonus
	}
	if score > maxScore {
		score = maxScore
	}

	decision := StatusRejected
	if score >= ApprovalThreshold && s.FaceInDocument && s.FaceInSelfie {
		decision = StatusApproved
	}
	return Result{Score: score, Decision: decision}
}
