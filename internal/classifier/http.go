package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// knownLabels maps backend labels to the closed PostType enumeration.
var knownLabels = map[string]domain.PostType{
	"STANDARD_PROMPT":   domain.PostTypeStandardPrompt,
	"META_PROMPT":       domain.PostTypeMetaPrompt,
	"JAILBREAK":         domain.PostTypeJailbreak,
	"TEMPLATE_PROMPT":   domain.PostTypeTemplatePrompt,
	"FILE_ATTACHMENT":   domain.PostTypeFileAttachment,
	"EXTERNAL_RESOURCE": domain.PostTypeExternalResource,
	"DISCUSSION":        domain.PostTypeDiscussion,
}

// HTTPClassifier talks to a configurable LLM endpoint over plain JSON.
type HTTPClassifier struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// HTTPOptions configures an HTTPClassifier.
type HTTPOptions struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewHTTPClassifier creates a classifier backed by an HTTP endpoint.
func NewHTTPClassifier(opts HTTPOptions, logger logrus.FieldLogger) *HTTPClassifier {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPClassifier{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		model:    opts.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logger.WithField("component", "classifier"),
	}
}

type classifyRequest struct {
	Model string `json:"model,omitempty"`
	Task  string `json:"task"`
	Input string `json:"input"`
}

type classifyResponse struct {
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

// Classify asks the backend for a post-type label.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (domain.PostType, error) {
	resp, err := c.call(ctx, "classify", text)
	if err != nil {
		return domain.PostTypeUnknown, err
	}
	label := strings.ToUpper(strings.TrimSpace(resp.Label))
	if t, ok := knownLabels[label]; ok {
		return t, nil
	}
	return domain.PostTypeUnknown, &domain.ClassificationError{
		Cause: fmt.Errorf("backend returned unknown label %q", resp.Label),
	}
}

// SuggestTags asks the backend for tag suggestions.
func (c *HTTPClassifier) SuggestTags(ctx context.Context, text string) ([]string, error) {
	resp, err := c.call(ctx, "suggest_tags", text)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(resp.Tags))
	for _, tag := range resp.Tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

func (c *HTTPClassifier) call(ctx context.Context, task, input string) (*classifyResponse, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(classifyRequest{
		Model: c.model,
		Task:  task,
		Input: input,
	})
	if err != nil {
		return nil, &domain.ClassificationError{Cause: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.ClassificationError{Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ClassificationError{Cause: fmt.Errorf("request failed: %w", err)}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &domain.ClassificationError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}
	if httpResp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{
			"status": httpResp.StatusCode,
			"task":   task,
		}).Warn("Classifier backend returned non-OK status")
		return nil, &domain.ClassificationError{
			Cause: fmt.Errorf("backend status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var resp classifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ClassificationError{Cause: fmt.Errorf("malformed response: %w", err)}
	}
	return &resp, nil
}
