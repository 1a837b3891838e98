package verification

import (
	"regexp"
	"strings"
	"unicode"
)

// FieldState says how a document field was obtained.
type FieldState string

const (
	FieldExtracted FieldState = "extracted"
	FieldNotFound  FieldState = "not_found"
	FieldFailed    FieldState = "extraction_failed"
)

// Field is one value read from a document.
type Field struct {
	Value string     `json:"value,omitempty"`
	State FieldState `json:"state"`
}

// Present reports whether the field carries an extracted value.
func (f Field) Present() bool { return f.State == FieldExtracted && f.Value != "" }

func extracted(v string) Field {
	if v == "" {
		return Field{State: FieldNotFound}
	}
	return Field{Value: v, State: FieldExtracted}
}

// Extraction is what could be read from a document image.
type Extraction struct {
	Text        string
	Name        Field
	NationalID  Field
	DateOfBirth Field
	HasKeywords bool
}

// Failed reports whether text extraction itself did not succeed.
func (e Extraction) Failed() bool { return e.NationalID.State == FieldFailed }

// FailedExtraction is the result used when OCR is unavailable. The record
// still gets created, it just fails every document check.
func FailedExtraction() Extraction {
	failed := Field{State: FieldFailed}
	return Extraction{Name: failed, NationalID: failed, DateOfBirth: failed}
}

// Checks derives the document checks from the extraction.
func (e Extraction) Checks() Checks {
	var c Checks
	c[CheckHasName] = e.Name.Present()
	c[CheckHasIDNumber] = e.NationalID.Present()
	c[CheckHasDateOfBirth] = e.DateOfBirth.Present()
	c[CheckHasDocumentKeywords] = e.HasKeywords
	return c
}

// ChecksAgainstName is Checks with the name check replaced by a match of
// any part of name (longer than two letters) against the document text.
func (e Extraction) ChecksAgainstName(name string) Checks {
	c := e.Checks()
	c[CheckHasName] = NameAppears(e.Text, name)
	return c
}

var (
	idNumberPattern = regexp.MustCompile(`\b\d{7,8}\b`)
	idNumberExact   = regexp.MustCompile(`^\d{7,8}$`)
	dobPatterns     = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{2}[-/.]\d{2}[-/.]\d{4}\b`),
		regexp.MustCompile(`\b\d{4}[-/.]\d{2}[-/.]\d{2}\b`),
		regexp.MustCompile(`\b\d{2}\s+[A-Za-z]{3}\s+\d{4}\b`),
	}
	nonWord = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	spaces  = regexp.MustCompile(`\s+`)

	documentKeywords = []string{"republic", "kenya", "identity", "card", "national"}
)

// skipWords are document boilerplate that never appears in a holder's name.
var skipWords = map[string]struct{}{
	"republic": {}, "kenya": {}, "identity": {}, "card": {}, "national": {},
	"id": {}, "number": {}, "no": {}, "date": {}, "birth": {}, "sex": {},
	"male": {}, "female": {}, "signature": {}, "photo": {}, "issued": {},
	"issue": {}, "expires": {}, "authority": {}, "government": {},
	"official": {}, "holder": {}, "dob": {}, "place": {}, "district": {},
	"location": {}, "of": {}, "the": {}, "and": {}, "in": {}, "serial": {},
}

// ValidNationalID reports whether s has the shape of a national id number.
func ValidNationalID(s string) bool { return idNumberExact.MatchString(s) }

// ParseDocument reads the holder's name, national id number and date of
// birth out of OCR text.
func ParseDocument(text string) Extraction {
	e := Extraction{Text: text}
	e.NationalID = extracted(idNumberPattern.FindString(text))
	for _, p := range dobPatterns {
		if m := p.FindString(text); m != "" {
			e.DateOfBirth = extracted(m)
			break
		}
	}
	if e.DateOfBirth.State == "" {
		e.DateOfBirth = Field{State: FieldNotFound}
	}
	e.Name = extracted(extractName(text))

	lower := strings.ToLower(text)
	for _, kw := range documentKeywords {
		if strings.Contains(lower, kw) {
			e.HasKeywords = true
			break
		}
	}
	return e
}

func extractName(text string) string {
	lines := documentLines(text)

	// A label line ("FULL NAMES", "NAME") usually precedes the name.
	for i, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "full name") && lower != "name" && lower != "names" {
			continue
		}
		for j := i + 1; j < len(lines) && j <= i+3; j++ {
			if name, ok := nameCandidate(lines[j]); ok {
				return name
			}
		}
	}

	// Otherwise take the first upper-case line that looks like a name.
	for _, line := range lines {
		if line != strings.ToUpper(line) {
			continue
		}
		if name, ok := nameCandidate(line); ok {
			return name
		}
	}
	return ""
}

func documentLines(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(spaces.ReplaceAllString(nonWord.ReplaceAllString(l, " "), " "))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func nameCandidate(line string) (string, bool) {
	if len(line) < 5 {
		return "", false
	}
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return "", false
	}
	for _, w := range words {
		if len(w) < 2 {
			return "", false
		}
		if _, skip := skipWords[strings.ToLower(w)]; skip {
			return "", false
		}
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return "", false
			}
		}
	}
	return strings.Join(words, " "), true
}

// NameAppears reports whether any part of name longer than two letters
// occurs in text, case-insensitively.
func NameAppears(text, name string) bool {
	lower := strings.ToLower(text)
	for _, part := range strings.Fields(strings.ToLower(name)) {
		if len(part) > 2 && strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
