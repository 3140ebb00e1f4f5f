package report

import (
	"strings"
	"testing"
)

func TestClassifyHeuristicallyRejectsEmpty(t *testing.T) {
	verdict := ClassifyHeuristically("   <p></p>  ")
	if verdict.Valid {
		t.Fatalf("ClassifyHeuristically() expected invalid for empty input")
	}
	if verdict.Storable() {
		t.Fatalf("empty input must not be storable")
	}
	if verdict.RejectionReason == "" {
		t.Fatalf("expected a rejection reason")
	}
}

func TestClassifyHeuristicallyRejectsSpam(t *testing.T) {
	cases := []string{
		"test",
		"test123 checking the widget",
		"asdfasdfasdfasdf",
		"qwertyqwerty keyboard mash",
		"aaaaaaaaaa",
		"1234567890!!!",
		"buy now huge discount click here",
	}
	for _, input := range cases {
		verdict := ClassifyHeuristically(input)
		if verdict.Valid {
			t.Fatalf("ClassifyHeuristically(%q) expected invalid", input)
		}
		if verdict.NeedsClarification {
			t.Fatalf("ClassifyHeuristically(%q) spam must not ask for clarification", input)
		}
	}
}

func TestClassifyHeuristicallyShortAsksClarification(t *testing.T) {
	verdict := ClassifyHeuristically("checkout broken")
	if verdict.Valid {
		t.Fatalf("short report must not be valid")
	}
	if !verdict.NeedsClarification {
		t.Fatalf("short report must ask for clarification")
	}
	if !verdict.Storable() {
		t.Fatalf("clarification verdicts are storable")
	}
	if verdict.ClarificationMessage == "" {
		t.Fatalf("expected a clarification message")
	}
}

func TestClassifyHeuristicallyValidReport(t *testing.T) {
	input := "When I click the pay button on the checkout page nothing happens and the card form shows a 500 error."
	verdict := ClassifyHeuristically(input)

	if !verdict.Valid {
		t.Fatalf("ClassifyHeuristically() expected valid, got rejection %q", verdict.RejectionReason)
	}
	if verdict.Category != CategoryPayment {
		t.Fatalf("category = %q, want %q", verdict.Category, CategoryPayment)
	}
	if verdict.Severity != SeverityHigh {
		t.Fatalf("severity = %q, want %q", verdict.Severity, SeverityHigh)
	}
	if verdict.QualityScore == nil {
		t.Fatalf("expected a quality score")
	}
	if verdict.Title == "" {
		t.Fatalf("expected a derived title")
	}
	if verdict.SanitizedDescription == "" {
		t.Fatalf("expected sanitized description")
	}
}

func TestClassifyHeuristicallyCategoryAndSeverity(t *testing.T) {
	cases := []struct {
		input    string
		category string
		severity string
	}{
		{"The dashboard takes forever, every page is slow and keeps loading", CategoryPerformance, SeverityMedium},
		{"My sales CSV export is missing rows from last week entirely", CategoryData, SeverityLow},
		{"The save button overlaps the cancel button on my product page", CategoryUI, SeverityLow},
		{"I cannot log in, the password reset email never arrives at all", CategoryAuthentication, SeverityLow},
		{"The whole application crashed when I opened my analytics view", CategoryOther, SeverityCritical},
	}
	for _, tc := range cases {
		verdict := ClassifyHeuristically(tc.input)
		if !verdict.Valid {
			t.Fatalf("ClassifyHeuristically(%q) expected valid", tc.input)
		}
		if verdict.Category != tc.category {
			t.Fatalf("category for %q = %q, want %q", tc.input, verdict.Category, tc.category)
		}
		if verdict.Severity != tc.severity {
			t.Fatalf("severity for %q = %q, want %q", tc.input, verdict.Severity, tc.severity)
		}
	}
}

func TestHeuristicScoreBounds(t *testing.T) {
	shortInput := "The checkout button does nothing when clicked"
	longInput := strings.Repeat("The page is broken and shows an error after submit. ", 20)

	short := ClassifyHeuristically(shortInput)
	long := ClassifyHeuristically(longInput)
	if short.QualityScore == nil || long.QualityScore == nil {
		t.Fatalf("expected scores for both verdicts")
	}
	if *short.QualityScore < 60 || *short.QualityScore > 100 {
		t.Fatalf("short score out of range: %v", *short.QualityScore)
	}
	if *long.QualityScore != 100 {
		t.Fatalf("long score = %v, want clamp at 100", *long.QualityScore)
	}
	if *long.QualityScore < *short.QualityScore {
		t.Fatalf("score must not decrease with length: %v < %v", *long.QualityScore, *short.QualityScore)
	}
}

func TestNormalizeDescriptionStripsHTML(t *testing.T) {
	got := NormalizeDescription("<b>checkout</b>   is\n\nbroken <script>x</script> today")
	if got != "checkout is broken x today" {
		t.Fatalf("NormalizeDescription() = %q", got)
	}
}

func TestDeriveTitleTruncatesOnWordBoundary(t *testing.T) {
	long := strings.Repeat("checkout keeps failing ", 10)
	verdict := ClassifyHeuristically(long)
	if !verdict.Valid {
		t.Fatalf("expected valid verdict")
	}
	if len(verdict.Title) > 80 {
		t.Fatalf("title too long: %d", len(verdict.Title))
	}
	if !strings.HasSuffix(verdict.Title, "...") {
		t.Fatalf("truncated title must end with ellipsis: %q", verdict.Title)
	}
}

func TestLooksLikeSpamAcceptsRealReports(t *testing.T) {
	if LooksLikeSpam("The refund button returns a server error when clicked") {
		t.Fatalf("real report flagged as spam")
	}
}
