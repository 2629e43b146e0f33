package service

import (
	"regexp"
	"strings"
)

// PIIType classifies a detected piece of personally identifiable information.
type PIIType string

const (
	PIIEmail      PIIType = "email"
	PIIPhone      PIIType = "phone"
	PIICardNumber PIIType = "card_number"
	PIINationalID PIIType = "national_id"
)

// PIIMatch is one detected PII occurrence.
type PIIMatch struct {
	Type  PIIType `json:"type"`
	Value string  `json:"value"`
}

// PII detection patterns. Phone requires at least 9 digits with common
// separators to avoid flagging short numeric codes; the card pattern
// matches 13-16 digit runs with optional spacing.
var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
)

// PIIService detects and masks personally identifiable information in
// free text. Used by the encryption round-trip test endpoint to show
// operators what would leak if a field were stored unencrypted.
type PIIService struct{}

// NewPIIService creates a new PIIService.
func NewPIIService() *PIIService {
	return &PIIService{}
}

// Detect returns all PII occurrences found in text, in detection order.
// Card numbers are checked before phones since the patterns overlap.
func (p *PIIService) Detect(text string) []PIIMatch {
	var matches []PIIMatch
	seen := make(map[string]bool)

	add := func(typ PIIType, values []string) {
		for _, v := range values {
			if !seen[v] {
				seen[v] = true
				matches = append(matches, PIIMatch{Type: typ, Value: v})
			}
		}
	}

	add(PIIEmail, emailPattern.FindAllString(text, -1))
	add(PIINationalID, ssnPattern.FindAllString(text, -1))
	add(PIICardNumber, cardPattern.FindAllString(text, -1))

	for _, v := range phonePattern.FindAllString(text, -1) {
		if seen[v] {
			continue
		}
		seen[v] = true
		matches = append(matches, PIIMatch{Type: PIIPhone, Value: v})
	}

	return matches
}

// Mask replaces every detected PII occurrence with a partially revealed
// form: emails keep the first character and domain, numbers keep their
// last four digits.
func (p *PIIService) Mask(text string) string {
	out := text
	for _, m := range p.Detect(text) {
		out = strings.ReplaceAll(out, m.Value, maskValue(m))
	}
	return out
}

func maskValue(m PIIMatch) string {
	switch m.Type {
	case PIIEmail:
		at := strings.Index(m.Value, "@")
		if at < 1 {
			return "***"
		}
		return m.Value[:1] + "***" + m.Value[at:]
	default:
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m.Value)
		if len(digits) <= 4 {
			return "****"
		}
		return "****" + digits[len(digits)-4:]
	}
}
