package ocr

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/swiftscan/constants"
)

var (
	reEmailish = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z]{2,}`)
	rePhoneish = regexp.MustCompile(`\+?\(?\d{2,4}\)?[-. ]?\d{3}[-. ]?\d{3,4}`)
)

// heuristicConfidence scores how business-card-like decoded text looks.
func heuristicConfidence(txt string) float32 {
	score := float32(0.2)
	if reEmailish.MatchString(txt) {
		score += 0.3
	}
	if rePhoneish.MatchString(txt) {
		score += 0.2
	}
	for _, s := range constants.CompanySuffixes {
		if strings.Contains(txt, s) {
			score += 0.1
			break
		}
	}
	if len(txt) > 40 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
