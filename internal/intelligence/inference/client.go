// Package inference calls hosted BERT-style models over the Hugging Face
// Inference API protocol: POST {base}/models/{model} with {"inputs": ...}.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/intelligence"
	"github.com/turtacn/patentdesk/pkg/errors"
)

const maxResponseBytes = 8 << 20

// Models names the model used for each task.
type Models struct {
	Classification    string
	FeatureExtraction string
	Summarization     string
	TokenClassifier   string
}

// Client implements intelligence.TextModel.
type Client struct {
	baseURL string
	apiKey  string
	models  Models
	http    *http.Client
	logger  logging.Logger
}

// NewClient builds a client from cfg.
func NewClient(cfg config.IntelligenceConfig, logger logging.Logger) (*Client, error) {
	if cfg.InferenceBaseURL == "" {
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "inference base url not configured")
	}
	models := Models{
		Classification:    cfg.ClassificationModel,
		FeatureExtraction: cfg.FeatureExtractionModel,
		Summarization:     cfg.SummarizationModel,
		TokenClassifier:   cfg.TokenClassifierModel,
	}
	return NewClientWithHTTP(cfg.InferenceBaseURL, cfg.InferenceAPIKey, models, &http.Client{Timeout: cfg.Timeout}, logger), nil
}

// NewClientWithHTTP builds a client on an existing http.Client.
func NewClientWithHTTP(baseURL, apiKey string, models Models, hc *http.Client, logger logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		models:  models,
		http:    hc,
		logger:  logger,
	}
}

type request struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

// statusError reports a non-200 reply.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("inference endpoint returned %d: %s", e.status, e.body)
}

// post sends one inference request and returns the raw JSON body. A model
// that is still loading (503) is reported as unavailable.
func (c *Client) post(ctx context.Context, model string, req request) (json.RawMessage, error) {
	if model == "" {
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "no model configured for task")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode inference request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build inference request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "inference request failed").WithDetail("model=" + model)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to read inference response")
	}
	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, errors.Wrap(&statusError{status: resp.StatusCode, body: strings.TrimSpace(string(data))},
			errors.ErrCodeAIModelNotAvailable, "inference model unavailable").WithDetail("model=" + model)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Wrap(&statusError{status: resp.StatusCode, body: strings.TrimSpace(string(data))},
			errors.ErrCodeExternalService, "inference request failed").WithDetail("model=" + model)
	}
	c.logger.Debug("inference call", logging.String("model", model), logging.Duration("latency", time.Since(start)))
	return data, nil
}

func decode(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "unexpected inference response")
	}
	return nil
}

// Classify accepts either [[{label,score}]] or [{label,score}] and returns
// the best MaxLabels labels.
func (c *Client) Classify(ctx context.Context, text string) ([]intelligence.Label, error) {
	raw, err := c.post(ctx, c.models.Classification, request{Inputs: text})
	if err != nil {
		return nil, err
	}
	var labels []intelligence.Label
	var nested [][]intelligence.Label
	if json.Unmarshal(raw, &nested) == nil {
		if len(nested) > 0 {
			labels = nested[0]
		}
	} else if err := decode(raw, &labels); err != nil {
		return nil, err
	}
	intelligence.SortLabels(labels)
	if len(labels) > intelligence.MaxLabels {
		labels = labels[:intelligence.MaxLabels]
	}
	return labels, nil
}

// Embed accepts a pooled vector or per-token vectors, which are mean pooled.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	raw, err := c.post(ctx, c.models.FeatureExtraction, request{Inputs: text})
	if err != nil {
		return nil, err
	}
	var flat []float64
	if json.Unmarshal(raw, &flat) == nil {
		return flat, nil
	}
	var tokens [][]float64
	if json.Unmarshal(raw, &tokens) == nil {
		return meanPool(tokens), nil
	}
	var batched [][][]float64
	if err := decode(raw, &batched); err != nil {
		return nil, err
	}
	if len(batched) == 0 {
		return nil, nil
	}
	return meanPool(batched[0]), nil
}

func meanPool(tokens [][]float64) []float64 {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]float64, len(tokens[0]))
	for _, tok := range tokens {
		for i := range out {
			if i < len(tok) {
				out[i] += tok[i]
			}
		}
	}
	for i := range out {
		out[i] /= float64(len(tokens))
	}
	return out
}

func (c *Client) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	req := request{Inputs: text}
	if maxLen > 0 {
		// max_length counts tokens; four characters per token is close enough.
		req.Parameters = map[string]any{"max_length": maxLen/4 + 1}
	}
	raw, err := c.post(ctx, c.models.Summarization, req)
	if err != nil {
		return "", err
	}
	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := decode(raw, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", nil
	}
	return intelligence.Truncate(strings.TrimSpace(out[0].SummaryText), maxLen), nil
}

// token is one token-classification output. Aggregating endpoints set
// EntityGroup; raw endpoints set Entity with a B-/I- prefix.
type token struct {
	EntityGroup string  `json:"entity_group"`
	Entity      string  `json:"entity"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
}

func (t token) label() (label string, begins bool) {
	if t.EntityGroup != "" {
		return t.EntityGroup, false
	}
	switch {
	case strings.HasPrefix(t.Entity, "B-"):
		return t.Entity[2:], true
	case strings.HasPrefix(t.Entity, "I-"):
		return t.Entity[2:], false
	}
	return t.Entity, false
}

// ExtractEntities groups token outputs by label. Adjacent tokens with the
// same label are merged into one entity; "##" word pieces are joined without
// a space.
func (c *Client) ExtractEntities(ctx context.Context, text string) (map[string][]string, error) {
	raw, err := c.post(ctx, c.models.TokenClassifier, request{Inputs: text})
	if err != nil {
		return nil, err
	}
	var tokens []token
	if err := decode(raw, &tokens); err != nil {
		return nil, err
	}
	return groupEntities(tokens), nil
}

// groupEntities merges runs of same-label tokens. A B- tag, a gap in the
// character offsets or a label change starts a new entity.
func groupEntities(tokens []token) map[string][]string {
	out := map[string][]string{}
	seen := map[string]map[string]struct{}{}
	flush := func(label string, words *strings.Builder) {
		w := strings.TrimSpace(words.String())
		words.Reset()
		if label == "" || label == "O" || w == "" {
			return
		}
		if seen[label] == nil {
			seen[label] = map[string]struct{}{}
		}
		if _, dup := seen[label][w]; dup {
			return
		}
		seen[label][w] = struct{}{}
		out[label] = append(out[label], w)
	}

	var (
		current string
		prevEnd int
		words   strings.Builder
	)
	for _, t := range tokens {
		label, begins := t.label()
		piece := strings.HasPrefix(t.Word, "##")
		gap := t.End > 0 && prevEnd > 0 && t.Start > prevEnd+1
		if label != current || (!piece && (begins || gap)) {
			flush(current, &words)
			current = label
		}
		switch {
		case piece:
			words.WriteString(strings.TrimPrefix(t.Word, "##"))
		case words.Len() > 0:
			words.WriteString(" ")
			words.WriteString(t.Word)
		default:
			words.WriteString(t.Word)
		}
		prevEnd = t.End
	}
	flush(current, &words)
	return out
}
