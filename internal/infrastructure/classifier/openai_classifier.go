package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"bugtriage/internal/domain/report"
	"bugtriage/internal/errs"
	"bugtriage/internal/ports"
)

const systemPrompt = `You are a bug report validator for an e-commerce platform. Your job is to:
1. Determine if a bug report is valid and meaningful
2. Filter out gibberish, spam, test submissions, and low-quality reports
3. Categorize valid reports and generate clear titles
4. Sanitize sensitive information from descriptions

Reject reports if they are:
- Gibberish (random characters, keyboard mashing like "asdfasdf")
- Test content ("test", "testing 123", etc.)
- Spam or promotional content
- Empty or extremely short without meaningful content
- Only emojis or special characters
- Not describing a technical issue

Flag for clarification if:
- Description is too vague ("it doesn't work")
- Missing critical information (what page, what action, what happened)
- Unclear what the expected behavior should be

Accept reports if they:
- Clearly describe what went wrong
- Include context about what the user was trying to do
- Describe the issue in sufficient detail for investigation
- Are written in a good faith attempt to report a real problem

Return JSON with:
- valid: boolean
- quality_score: number (0-100)
- category: string ("ui", "payment", "performance", "data", "authentication", "other")
- severity: string ("low", "medium", "high", "critical")
- title: string (clear, concise title for the bug)
- sanitized_description: string (description with sensitive info redacted)
- rejection_reason: string (if valid is false)
- needs_clarification: boolean
- clarification_message: string (if needs_clarification is true)`

var errEmptyCompletion = errors.New("classifier returned no content")

type verdictPayload struct {
	Valid                bool     `json:"valid"`
	QualityScore         *float64 `json:"quality_score"`
	Category             string   `json:"category"`
	Severity             string   `json:"severity"`
	Title                string   `json:"title"`
	SanitizedDescription string   `json:"sanitized_description"`
	RejectionReason      string   `json:"rejection_reason"`
	NeedsClarification   bool     `json:"needs_clarification"`
	ClarificationMessage string   `json:"clarification_message"`
}

// OpenAIClassifier is the remote classification path. It never absorbs
// failures itself; the fallback chain wrapping it does.
type OpenAIClassifier struct {
	client openai.Client
	model  string
}

var _ ports.Classifier = (*OpenAIClassifier)(nil)

func NewOpenAIClassifier(apiKey string, baseURL string, model string) *OpenAIClassifier {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClassifier{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAIClassifier) Classify(ctx context.Context, input ports.ClassifyInput) (report.Verdict, error) {
	if ctx == nil {
		return report.Verdict{}, errors.New("context is required")
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(input)),
		},
		Temperature: openai.Float(0.3),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return report.Verdict{}, errs.Wrap(err, "chat completion")
	}
	if len(completion.Choices) == 0 {
		return report.Verdict{}, errEmptyCompletion
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return report.Verdict{}, errEmptyCompletion
	}

	return ParseVerdict(content, input.Description)
}

// ParseVerdict decodes a model reply into a verdict. The reply may be
// fenced or prefixed; the first balanced JSON object is extracted before
// unmarshalling.
func ParseVerdict(content string, originalDescription string) (report.Verdict, error) {
	raw, err := ExtractJSONObject(content)
	if err != nil {
		return report.Verdict{}, err
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return report.Verdict{}, errs.Wrap(err, "unmarshal verdict")
	}

	sanitized := payload.SanitizedDescription
	if sanitized == "" {
		sanitized = originalDescription
	}

	return report.Verdict{
		// Clarification blocks publication, so a clarification verdict is
		// stored as not-yet-valid.
		Valid:                payload.Valid && !payload.NeedsClarification,
		QualityScore:         payload.QualityScore,
		Category:             payload.Category,
		Severity:             payload.Severity,
		Title:                payload.Title,
		SanitizedDescription: sanitized,
		RejectionReason:      payload.RejectionReason,
		NeedsClarification:   payload.NeedsClarification,
		ClarificationMessage: payload.ClarificationMessage,
	}, nil
}

func userPrompt(input ports.ClassifyInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Bug report description: %s", input.Description)
	if input.PageURL != "" {
		fmt.Fprintf(&b, "\nPage URL: %s", input.PageURL)
	}
	if input.Context.Browser != "" {
		fmt.Fprintf(&b, "\nBrowser: %s", input.Context.Browser)
	}
	if input.Context.OS != "" {
		fmt.Fprintf(&b, "\nOS: %s", input.Context.OS)
	}
	if input.Context.Viewport != "" {
		fmt.Fprintf(&b, "\nViewport: %s", input.Context.Viewport)
	}
	return b.String()
}
