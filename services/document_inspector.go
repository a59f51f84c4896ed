package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

const (
	defaultInspectionBaseURL = "https://api.openai.com/v1"
	defaultInspectionModel   = "gpt-4o"
	inspectionMaxTokens      = 500
)

// DocumentVerdict is the outcome of inspecting a single document.
type DocumentVerdict struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason"`
}

// DocumentInspector sends a document image or PDF to a multimodal
// chat-completions endpoint and asks it to check the name, the expiry date
// and whether the document looks genuine. Inspect never returns an error;
// every failure degrades to an invalid verdict so callers always get an
// answer they can persist.
type DocumentInspector struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewDocumentInspector constructs a DocumentInspector. A nil client gets a
// default with a generous timeout; vision requests are slow.
func NewDocumentInspector(apiKey, baseURL, model string, client *http.Client) *DocumentInspector {
	if baseURL == "" {
		baseURL = defaultInspectionBaseURL
	}
	if model == "" {
		model = defaultInspectionModel
	}
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	return &DocumentInspector{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

// NewDocumentInspectorFromEnv builds an inspector from OPENAI_API_KEY,
// OPENAI_BASE_URL and OPENAI_MODEL. A missing key yields a disabled
// inspector rather than an error; the job skips its pass in that case.
func NewDocumentInspectorFromEnv() *DocumentInspector {
	return NewDocumentInspector(
		strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		os.Getenv("OPENAI_BASE_URL"),
		os.Getenv("OPENAI_MODEL"),
		nil,
	)
}

// Enabled reports whether an API key is configured.
func (i *DocumentInspector) Enabled() bool {
	return i != nil && i.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Inspect checks one document against the expected name and expiry date.
// documentKind is a human label such as "driver license" or
// "insurance document" and is embedded in the prompt.
func (i *DocumentInspector) Inspect(ctx context.Context, content []byte, mimeType, expectedName, expectedExpiry, documentKind string) DocumentVerdict {
	raw, err := i.requestInspection(ctx, content, mimeType, expectedName, expectedExpiry, documentKind)
	if err != nil {
		return DocumentVerdict{IsValid: false, Reason: "API error: " + err.Error()}
	}
	return parseVerdict(raw)
}

func (i *DocumentInspector) requestInspection(ctx context.Context, content []byte, mimeType, expectedName, expectedExpiry, documentKind string) (string, error) {
	systemPrompt := fmt.Sprintf(`You are a document validation assistant. Analyze the provided %[1]s and check:
1. If the name "%[2]s" appears in the document (check for variations, initials, etc.)
2. If the expiry date "%[3]s" matches or is close to the expiry date in the document
3. If the document appears to be a valid %[1]s

Respond with a JSON object: {"isValid": true/false, "reason": "explanation"}
If the name doesn't match or expiry date doesn't match, set isValid to false and provide a clear reason.`,
		documentKind, expectedName, expectedExpiry)

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(content))

	body := chatCompletionRequest{
		Model: i.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []chatContentPart{
				{
					Type: "text",
					Text: fmt.Sprintf(`Please validate this %s. Expected name: "%s", Expected expiry: "%s"`,
						documentKind, expectedName, expectedExpiry),
				},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
			}},
		},
		MaxTokens: inspectionMaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+i.apiKey)

	resp, err := i.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("inspection api status %d body %s", resp.StatusCode, string(snippet))
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode inspection response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("inspection response contained no choices")
	}

	return decoded.Choices[0].Message.Content, nil
}

// verdictPattern grabs the outermost brace-delimited substring from a reply.
var verdictPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseVerdict turns a free-form model reply into a verdict. It prefers the
// first JSON object found in the text; isValid counts only when the parsed
// value is the literal boolean true. Replies without a parseable object fall
// back to crude substring matching on "valid"/"invalid".
func parseVerdict(reply string) DocumentVerdict {
	if match := verdictPattern.FindString(reply); match != "" {
		var decoded struct {
			IsValid any    `json:"isValid"`
			Reason  string `json:"reason"`
		}
		if err := json.Unmarshal([]byte(match), &decoded); err == nil {
			valid, _ := decoded.IsValid.(bool)
			reason := decoded.Reason
			if reason == "" {
				reason = "Validation completed"
			}
			return DocumentVerdict{IsValid: valid, Reason: reason}
		}
	}

	lower := strings.ToLower(reply)
	if strings.Contains(lower, "valid") && !strings.Contains(lower, "invalid") {
		return DocumentVerdict{IsValid: true, Reason: "Document appears valid"}
	}
	return DocumentVerdict{IsValid: false, Reason: "Could not validate document format"}
}
