package report

import (
	"regexp"
	"strings"
)

// Deterministic fallback classifier. It runs whenever the remote model call
// fails, times out, or returns unparsable content, and must keep the exact
// output vocabulary of the remote path so publication gating stays agnostic
// to which path produced the verdict.

const (
	// MinDescriptionLength is the bar below which a report is asked for
	// clarification instead of being rejected outright.
	MinDescriptionLength = 25

	// MinPublishLength is re-checked by the publication job.
	MinPublishLength = 20

	titleMaxLength = 80
)

const (
	rejectEmptyMessage       = "Please describe the problem you ran into."
	rejectSpamMessage        = "This report looks like test or promotional content, not a bug."
	rejectUnavailableMessage = "Validation service temporarily unavailable. Please try again."
	clarificationMessage     = "Could you add more detail? Tell us what page you were on, what you did, and what happened instead of what you expected."
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	testWordPattern   = regexp.MustCompile(`(?i)\b(test|testing|test123|sample|placeholder)\b`)
	nonLetterPattern  = regexp.MustCompile(`^[^a-zA-Z]*$`)
	promoWordPattern  = regexp.MustCompile(`(?i)\b(buy now|click here|free|discount|promo|offer)\b`)
)

// keyboardRuns are mash sequences matched as substrings: "asdfasdf" carries
// no word boundary, so a \b pattern would miss it.
var keyboardRuns = []string{"asdf", "qwerty", "zxcv", "hjkl"}

type keywordRule struct {
	value    string
	keywords []string
}

// Ordered: first match wins.
var categoryRules = []keywordRule{
	{CategoryPayment, []string{"payment", "checkout", "charge", "card", "refund", "payout", "invoice"}},
	{CategoryPerformance, []string{"slow", "timeout", "lag", "performance", "loading", "freez"}},
	{CategoryData, []string{"export", "csv", "data", "missing", "lost", "sync", "corrupt"}},
	{CategoryUI, []string{"button", "layout", "display", "style", "overlap", "screen", "page", "render"}},
	{CategoryAuthentication, []string{"login", "log in", "password", "sign in", "signin", "auth", "2fa", "session"}},
}

var severityRules = []keywordRule{
	{SeverityCritical, []string{"crash", "data loss", "security", "cannot pay", "can't pay", "charged twice"}},
	{SeverityHigh, []string{"error", "fail", "broken", "500", "unable", "blocked"}},
	{SeverityMedium, []string{"slow", "incorrect", "wrong", "unexpected", "sometimes"}},
}

// ClassifyHeuristically is the deterministic safety valve for the remote
// classifier. Pure function of the description text.
func ClassifyHeuristically(description string) Verdict {
	text := NormalizeDescription(description)
	if text == "" {
		return Verdict{
			Valid:           false,
			RejectionReason: rejectEmptyMessage,
		}
	}

	if LooksLikeSpam(text) {
		return Verdict{
			Valid:           false,
			RejectionReason: rejectSpamMessage,
		}
	}

	if len(text) < MinDescriptionLength {
		return Verdict{
			Valid:                false,
			NeedsClarification:   true,
			ClarificationMessage: clarificationMessage,
			SanitizedDescription: text,
		}
	}

	return Verdict{
		Valid:                true,
		QualityScore:         ScorePtr(heuristicScore(text)),
		Category:             inferCategory(text),
		Severity:             inferSeverity(text),
		Title:                deriveTitle(text),
		SanitizedDescription: text,
	}
}

// UnavailableVerdict is returned when classification cannot run at all.
func UnavailableVerdict() Verdict {
	return Verdict{
		Valid:           false,
		RejectionReason: rejectUnavailableMessage,
	}
}

// NormalizeDescription strips HTML tags and collapses whitespace.
func NormalizeDescription(description string) string {
	text := htmlTagPattern.ReplaceAllString(description, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// LooksLikeSpam matches the fixed signature set shared by the fallback
// classifier and the publication job's re-validation gate.
func LooksLikeSpam(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	if len(trimmed) < 5 {
		return true
	}
	if testWordPattern.MatchString(trimmed) {
		return true
	}
	if nonLetterPattern.MatchString(trimmed) {
		return true
	}
	if promoWordPattern.MatchString(trimmed) {
		return true
	}
	if hasRepeatedRun(trimmed, 8) {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, run := range keyboardRuns {
		if strings.Contains(lower, run) {
			return true
		}
	}
	return false
}

// hasRepeatedRun reports whether any single rune repeats at least n times in
// a row. RE2 has no backreferences, so this is done by hand.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	count := 0
	for _, r := range text {
		if r == prev {
			count++
			if count >= n {
				return true
			}
			continue
		}
		prev = r
		count = 1
	}
	return false
}

func inferCategory(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.value
			}
		}
	}
	return CategoryOther
}

func inferSeverity(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range severityRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.value
			}
		}
	}
	return SeverityLow
}

// heuristicScore grows with text length: longer reports carry more signal.
// Clamped to [60,100] so a fallback-validated report only clears the publish
// threshold with real substance.
func heuristicScore(text string) float64 {
	score := 60 + float64(len(text))/10
	if score > 100 {
		return 100
	}
	return score
}

func deriveTitle(text string) string {
	if len(text) <= titleMaxLength {
		return text
	}
	cut := text[:titleMaxLength-3]
	if idx := strings.LastIndex(cut, " "); idx > titleMaxLength/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
