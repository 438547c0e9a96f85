package checks

import (
	"regexp"
	"strings"
)

// Pattern-rule score contributions.
const (
	scoreConsecutiveNumbers = 30
	scoreRandomSequence     = 25
	scoreExcessiveDots      = 20
	scoreVeryShortAddress   = 15
	scoreRepeatingPattern   = 20
	scoreSpamKeyword        = 25
)

var (
	consecutiveDigitsRe = regexp.MustCompile(`[0-9]{7,}`)
	alnumOnlyRe         = regexp.MustCompile(`(?i)^[a-z0-9]{10,}$`)
	adjacentVowelsRe    = regexp.MustCompile(`(?i)[aeiou]{2}`)
)

// PatternScorer flags machine-generated looking local-parts. All rules are
// independent and additive; only the keyword scan stops at its first hit.
type PatternScorer struct {
	keywords []string
}

// NewPatternScorer parses the newline-delimited spam keyword list.
func NewPatternScorer(spamKeywords string) *PatternScorer {
	var keywords []string
	for _, line := range strings.Split(spamKeywords, "\n") {
		kw := strings.ToLower(strings.TrimSpace(line))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &PatternScorer{keywords: keywords}
}

// Check inspects the local-part of email (everything before the '@').
func (p *PatternScorer) Check(email string) Result {
	var res Result
	localPart := strings.SplitN(email, "@", 2)[0]

	if consecutiveDigitsRe.MatchString(localPart) {
		res.add(scoreConsecutiveNumbers, ReasonConsecutiveNumbers)
	}

	if alnumOnlyRe.MatchString(localPart) && !adjacentVowelsRe.MatchString(localPart) {
		res.add(scoreRandomSequence, ReasonRandomSequence)
	}

	if strings.Count(localPart, ".") > 3 {
		res.add(scoreExcessiveDots, ReasonExcessiveDots)
	}

	if len(strings.ReplaceAll(localPart, ".", "")) < 4 {
		res.add(scoreVeryShortAddress, ReasonVeryShortAddress)
	}

	if hasRepeatingPattern(localPart) {
		res.add(scoreRepeatingPattern, ReasonRepeatingPattern)
	}

	lowered := strings.ToLower(localPart)
	for _, kw := range p.keywords {
		if strings.Contains(lowered, kw) {
			res.add(scoreSpamKeyword, ReasonSpamKeyword)
			break
		}
	}

	return res
}

// hasRepeatingPattern reports whether s contains a substring of length >= 3
// repeated at least 3 times back to back ("abcabcabc").
func hasRepeatingPattern(s string) bool {
	n := len(s)
	for length := 3; length*3 <= n; length++ {
		for i := 0; i+length*3 <= n; i++ {
			unit := s[i : i+length]
			if s[i+length:i+2*length] == unit && s[i+2*length:i+3*length] == unit {
				return true
			}
		}
	}
	return false
}
