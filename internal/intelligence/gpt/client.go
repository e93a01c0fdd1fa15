// Package gpt implements the text and language models on the OpenAI API.
package gpt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/intelligence"
	"github.com/turtacn/patentdesk/pkg/errors"
)

const (
	temperature = 0.7
	maxTokens   = 2000
)

// ChatAPI is the subset of *openai.Client used here.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Client implements intelligence.TextModel and intelligence.LanguageModel.
type Client struct {
	api            ChatAPI
	model          string
	embeddingModel string
	logger         logging.Logger
}

// NewClient builds a client from cfg. OpenAIBaseURL, when set, points the
// client at a compatible gateway.
func NewClient(cfg config.IntelligenceConfig, logger logging.Logger) (*Client, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New(errors.ErrCodeAIModelNotAvailable, "openai api key not configured")
	}
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	return NewClientWithAPI(openai.NewClientWithConfig(oc), cfg.Model, cfg.EmbeddingModel, logger), nil
}

// NewClientWithAPI wraps an existing API implementation.
func NewClientWithAPI(api ChatAPI, model, embeddingModel string, logger logging.Logger) *Client {
	if model == "" {
		model = openai.GPT4
	}
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}
	return &Client{api: api, model: model, embeddingModel: embeddingModel, logger: logger}
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.ErrCodeExternalService, "chat completion returned no choices")
	}
	c.logger.Debug("chat completion",
		logging.String("model", c.model),
		logging.Int("prompt_tokens", resp.Usage.PromptTokens),
		logging.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// chatJSON asks for a JSON reply and decodes it into out.
func (c *Client) chatJSON(ctx context.Context, system, user string, out any) error {
	raw, err := c.chat(ctx, system+" Respond with a single JSON object and nothing else.", user)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), out); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "model returned malformed JSON")
	}
	return nil
}

// extractJSON strips code fences and any prose around the outermost object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(s)
	}
	return s[start : end+1]
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "embedding request failed")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New(errors.ErrCodeExternalService, "embedding response was empty")
	}
	src := resp.Data[0].Embedding
	vec := make([]float64, len(src))
	for i, v := range src {
		vec[i] = float64(v)
	}
	return vec, nil
}

func (c *Client) Classify(ctx context.Context, text string) ([]intelligence.Label, error) {
	var out struct {
		Labels []intelligence.Label `json:"labels"`
	}
	err := c.chatJSON(ctx,
		"You classify patent text into technology domains.",
		fmt.Sprintf(`Classify the text below into at most %d technology domains with confidence scores between 0 and 1. Use the shape {"labels":[{"label":"...","score":0.0}]}.

%s`, intelligence.MaxLabels, text),
		&out)
	if err != nil {
		return nil, err
	}
	if len(out.Labels) > intelligence.MaxLabels {
		out.Labels = out.Labels[:intelligence.MaxLabels]
	}
	return out.Labels, nil
}

func (c *Client) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	out, err := c.chat(ctx,
		"You write concise technical summaries of patent text.",
		fmt.Sprintf("Summarize the following in at most %d characters:\n\n%s", maxLen, text))
	if err != nil {
		return "", err
	}
	return intelligence.Truncate(strings.TrimSpace(out), maxLen), nil
}

func (c *Client) ExtractEntities(ctx context.Context, text string) (map[string][]string, error) {
	out := map[string][]string{}
	err := c.chatJSON(ctx,
		"You extract named technical entities from patent text.",
		`Group the entities in the text below by type (for example MATERIAL, COMPONENT, PROCESS, QUANTITY, ORGANIZATION). Use the shape {"TYPE":["entity", ...]}.

`+text,
		&out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

const analystPrompt = "You are a senior patent analyst assessing patent applications."

func describe(p intelligence.PatentText) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", p.Title)
	if p.TechnicalField != "" {
		fmt.Fprintf(&sb, "Technical field: %s\n", p.TechnicalField)
	}
	fmt.Fprintf(&sb, "Description: %s\n", p.Description)
	if p.BackgroundArt != "" {
		fmt.Fprintf(&sb, "Background art: %s\n", p.BackgroundArt)
	}
	if len(p.Jurisdictions) > 0 {
		fmt.Fprintf(&sb, "Jurisdictions: %s\n", strings.Join(p.Jurisdictions, ", "))
	}
	for i, claim := range p.Claims {
		fmt.Fprintf(&sb, "Claim %d: %s\n", i+1, claim)
	}
	return sb.String()
}

func (c *Client) AnalyzePatent(ctx context.Context, p intelligence.PatentText) (intelligence.QualityAnalysis, error) {
	var q intelligence.QualityAnalysis
	err := c.chatJSON(ctx, analystPrompt,
		`Assess the patent below. Score technical_complexity, market_potential and innovation_score from 0 to 100 and list strengths, weaknesses, opportunities and risks. Use the shape {"technical_complexity":0,"market_potential":0,"innovation_score":0,"strengths":[],"weaknesses":[],"opportunities":[],"risks":[]}.

`+describe(p),
		&q)
	if err != nil {
		return intelligence.QualityAnalysis{}, err
	}
	return q.Normalize(), nil
}

func (c *Client) Recommend(ctx context.Context, p intelligence.PatentText, sim intelligence.SimilarityResult, q intelligence.QualityAnalysis) ([]string, error) {
	var refs strings.Builder
	for _, r := range sim.References {
		fmt.Fprintf(&refs, "- %s (relevance %.2f)\n", r.Title, r.RelevanceScore)
	}
	var out struct {
		Recommendations []string `json:"recommendations"`
	}
	err := c.chatJSON(ctx, analystPrompt,
		fmt.Sprintf(`Given the patent, its prior-art similarity and its quality scores, give actionable recommendations for the applicant. Use the shape {"recommendations":["..."]}.

%s
Overall similarity to prior art: %.2f
Closest references:
%s
Technical complexity: %.0f, market potential: %.0f, innovation: %.0f
Weaknesses: %s
Risks: %s`,
			describe(p), sim.Overall, refs.String(),
			q.TechnicalComplexity, q.MarketPotential, q.InnovationScore,
			strings.Join(q.Weaknesses, "; "), strings.Join(q.Risks, "; ")),
		&out)
	if err != nil {
		return nil, err
	}
	return out.Recommendations, nil
}

func (c *Client) SearchStrategy(ctx context.Context, p intelligence.PatentText) (intelligence.SearchStrategy, error) {
	var s intelligence.SearchStrategy
	err := c.chatJSON(ctx, analystPrompt,
		`Propose a prior-art search strategy for the patent below: keywords, patent classification codes (IPC or CPC) and boolean queries. Use the shape {"keywords":[],"classifications":[],"queries":[]}.

`+describe(p),
		&s)
	if err != nil {
		return intelligence.SearchStrategy{}, err
	}
	return s, nil
}
