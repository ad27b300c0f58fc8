// Package contact turns OCR text from a business card into contact fields.
//
// Extraction is a fixed sequence of cheap heuristics: email, phone, role, company,
// then name (last, because it may be derived from the email). Every step scans the
// card's lines top to bottom and the first acceptable line wins.
package contact

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/swiftscan/constants"
	"github.com/joseph-ayodele/swiftscan/internal/entity"
)

var (
	reEmail = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z0-9_-]+`)
	// optional country prefix, then 3-3-4 digits with space/hyphen/dot separators
	rePhone      = regexp.MustCompile(`(?:\+?\d{1,3}[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}`)
	reDigit      = regexp.MustCompile(`\d`)
	reLocalSplit = regexp.MustCompile(`[._]`)
)

// minPhoneLen rejects years and other short numeric tokens.
const minPhoneLen = 8

// minDerivedNameLen is the shortest email-derived name kept without a line scan.
const minDerivedNameLen = 3

// Extract parses raw OCR text into a Contact. It never fails: a field that
// cannot be found is left empty. RawData carries the input unchanged.
func Extract(raw string) entity.Contact {
	lines := Lines(raw)

	c := entity.Contact{RawData: raw}
	c.Email = findEmail(lines)
	c.Phone = findPhone(lines)
	c.Role = findRole(lines)
	c.Company = findCompany(lines, c.Email)
	c.Name = findName(lines, c.Email)
	return c
}

// Lines splits text on line breaks, trims each line and drops blank ones.
func Lines(raw string) []string {
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findEmail(lines []string) string {
	for _, ln := range lines {
		if m := reEmail.FindString(ln); m != "" {
			return m
		}
	}
	return ""
}

func findPhone(lines []string) string {
	for _, ln := range lines {
		if m := rePhone.FindString(ln); len(m) > minPhoneLen {
			return m
		}
	}
	return ""
}

func findRole(lines []string) string {
	for _, ln := range lines {
		if hasRoleKeywordFold(ln) {
			return ln
		}
	}
	return ""
}

func findCompany(lines []string, email string) string {
	for _, ln := range lines {
		for _, s := range constants.CompanySuffixes {
			if strings.Contains(ln, s) {
				return ln
			}
		}
	}
	return companyFromEmail(email)
}

// companyFromEmail guesses an employer from the email domain, e.g.
// "jane@acme.io" -> "Acme". Consumer providers yield "".
func companyFromEmail(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || constants.IsPublicEmailProvider(domain) {
		return ""
	}
	label, _, _ := strings.Cut(domain, ".")
	return capitalize(label)
}

func findName(lines []string, email string) string {
	name := nameFromEmail(email)
	if name != "" && utf8.RuneCountInString(name) >= minDerivedNameLen {
		return name
	}
	for _, ln := range lines {
		if isNameLine(ln) {
			return ln
		}
	}
	return name
}

// nameFromEmail turns "jane.doe" or "jane_doe" into "Jane Doe" and "jdoe" into "Jdoe".
func nameFromEmail(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return ""
	}
	if !strings.ContainsAny(local, "._") {
		return capitalize(local)
	}
	parts := reLocalSplit.Split(local, -1)
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

// isNameLine accepts 2-3 capitalised words with no digits, no '@' and no role keyword.
func isNameLine(ln string) bool {
	words := strings.Fields(ln)
	if len(words) < 2 || len(words) > 3 {
		return false
	}
	if reDigit.MatchString(ln) || strings.Contains(ln, "@") || hasRoleKeyword(ln) {
		return false
	}
	for _, w := range words {
		if w[0] < 'A' || w[0] > 'Z' {
			return false
		}
	}
	return true
}

func hasRoleKeywordFold(ln string) bool {
	lower := strings.ToLower(ln)
	for _, k := range constants.RoleKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// hasRoleKeyword is the case-sensitive variant used to veto name candidates.
func hasRoleKeyword(ln string) bool {
	for _, k := range constants.RoleKeywords {
		if strings.Contains(ln, k) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// HeuristicExtractor adapts Extract to the pipeline's field-extraction stage.
type HeuristicExtractor struct{}

// ExtractFields implements extract.FieldExtractor. It never returns an error.
func (HeuristicExtractor) ExtractFields(_ context.Context, text string) (entity.Contact, error) {
	return Extract(text), nil
}
