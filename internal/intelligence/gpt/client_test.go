package gpt

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/intelligence"
	pkgerrors "github.com/turtacn/patentdesk/pkg/errors"
)

type mockChatAPI struct {
	mock.Mock
}

func (m *mockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func (m *mockChatAPI) CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.EmbeddingResponse), args.Error(1)
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
	}}
}

func newTestClient(api ChatAPI) *Client {
	return NewClientWithAPI(api, "", "", logging.NewNopLogger())
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(config.IntelligenceConfig{}, logging.NewNopLogger())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeAIModelNotAvailable))

	c, err := NewClient(config.IntelligenceConfig{OpenAIAPIKey: "sk-test", Model: "gpt-4o"}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.model)
	assert.Equal(t, string(openai.SmallEmbedding3), c.embeddingModel)
}

func TestChat_RequestShape(t *testing.T) {
	api := &mockChatAPI{}
	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == openai.GPT4 &&
			req.MaxTokens == maxTokens &&
			req.Temperature == float32(temperature) &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[1].Role == openai.ChatMessageRoleUser
	})).Return(reply("A short summary. More text here."), nil)

	out, err := newTestClient(api).Summarize(context.Background(), "long text", 16)
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", out)
	api.AssertExpectations(t)
}

func TestAnalyzePatent_ParsesFencedJSON(t *testing.T) {
	api := &mockChatAPI{}
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply("```json\n"+
		`{"technical_complexity":140,"market_potential":65,"innovation_score":-3,"strengths":["novel"],"risks":["crowded field"]}`+
		"\n```"), nil)

	q, err := newTestClient(api).AnalyzePatent(context.Background(), intelligence.PatentText{Title: "Widget"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, q.TechnicalComplexity)
	assert.Equal(t, 65.0, q.MarketPotential)
	assert.Equal(t, 0.0, q.InnovationScore)
	assert.Equal(t, []string{"novel"}, q.Strengths)
	assert.Equal(t, []string{}, q.Weaknesses)
}

func TestAnalyzePatent_MalformedJSON(t *testing.T) {
	api := &mockChatAPI{}
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply("not json at all"), nil)

	_, err := newTestClient(api).AnalyzePatent(context.Background(), intelligence.PatentText{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func TestClassify_CapsLabels(t *testing.T) {
	api := &mockChatAPI{}
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply(
		`{"labels":[{"label":"a","score":0.9},{"label":"b","score":0.5},{"label":"c","score":0.3},{"label":"d","score":0.1}]}`), nil)

	labels, err := newTestClient(api).Classify(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, labels, intelligence.MaxLabels)
	assert.Equal(t, "a", labels[0].Label)
}

func TestRecommendAndStrategy(t *testing.T) {
	api := &mockChatAPI{}
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply(`{"recommendations":["narrow claim 1"]}`), nil).Once()
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply(`{"keywords":["widget"],"classifications":["G06F"],"queries":["widget AND gear"]}`), nil).Once()
	c := newTestClient(api)

	recs, err := c.Recommend(context.Background(), intelligence.PatentText{Title: "W"}, intelligence.SimilarityResult{Overall: 0.7}, intelligence.QualityAnalysis{})
	require.NoError(t, err)
	assert.Equal(t, []string{"narrow claim 1"}, recs)

	s, err := c.SearchStrategy(context.Background(), intelligence.PatentText{Title: "W"})
	require.NoError(t, err)
	assert.Equal(t, []string{"G06F"}, s.Classifications)
}

func TestChat_Errors(t *testing.T) {
	api := &mockChatAPI{}
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, errors.New("rate limited")).Once()
	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, nil).Once()
	c := newTestClient(api)

	_, err := c.Summarize(context.Background(), "x", 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))

	_, err = c.Summarize(context.Background(), "x", 10)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))
}

func TestEmbed(t *testing.T) {
	api := &mockChatAPI{}
	api.On("CreateEmbeddings", mock.Anything, mock.MatchedBy(func(req openai.EmbeddingRequestConverter) bool {
		r, ok := req.(openai.EmbeddingRequest)
		return ok && r.Model == openai.SmallEmbedding3
	})).Return(openai.EmbeddingResponse{Data: []openai.Embedding{{Embedding: []float32{0.5, 0.25}}}}, nil).Once()
	api.On("CreateEmbeddings", mock.Anything, mock.Anything).Return(openai.EmbeddingResponse{}, nil).Once()
	c := newTestClient(api)

	vec, err := c.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25}, vec)

	_, err = c.Embed(context.Background(), "text")
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON("Sure! ```json\n{\"a\":1}\n``` done"))
	assert.Equal(t, "plain", extractJSON("  plain "))
}
