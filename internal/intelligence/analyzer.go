package intelligence

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// Policy decides what a provider error turns into.
type Policy string

const (
	// PolicyFail surfaces every provider error as AI_002.
	PolicyFail Policy = "fail"
	// PolicyFallback logs the error and returns a fixed default.
	PolicyFallback Policy = "fallback"
)

// ParsePolicy maps a config value onto a Policy. Anything unrecognised is
// treated as PolicyFail.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), string(PolicyFallback)) {
		return PolicyFallback
	}
	return PolicyFail
}

type fallbackKey struct{}

// Fallbacks counts the analyzer calls under one context that were answered
// with a fallback value instead of a provider result.
type Fallbacks struct {
	n atomic.Int32
}

// Used reports whether any call fell back.
func (f *Fallbacks) Used() bool {
	return f != nil && f.n.Load() > 0
}

// TrackFallbacks returns a child of ctx whose analyzer calls are counted in
// the returned Fallbacks.
func TrackFallbacks(ctx context.Context) (context.Context, *Fallbacks) {
	f := &Fallbacks{}
	return context.WithValue(ctx, fallbackKey{}, f), f
}

// Options configures NewAnalyzer.
type Options struct {
	// Provider labels metrics, e.g. "openai".
	Provider string
	Policy   Policy
	Timeout  time.Duration
	Metrics  *prometheus.AppMetrics
	Logger   logging.Logger
}

type analyzer struct {
	text     TextModel
	lang     LanguageModel
	provider string
	policy   Policy
	timeout  time.Duration
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
}

// NewAnalyzer combines a text model and a language model behind the failure
// policy. Every call is timed into the LLM duration histogram.
func NewAnalyzer(text TextModel, lang LanguageModel, opts Options) Analyzer {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Policy == "" {
		opts.Policy = PolicyFail
	}
	return &analyzer{
		text:     text,
		lang:     lang,
		provider: opts.Provider,
		policy:   opts.Policy,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// call runs fn under the configured timeout and records its outcome.
func (a *analyzer) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	start := time.Now()
	err := fn(ctx)
	a.metrics.RecordLLMCall(a.provider, op, err == nil, time.Since(start))
	return err
}

// handle applies the policy to err. It returns nil when the caller should use
// its fallback value.
func (a *analyzer) handle(ctx context.Context, op string, err error) error {
	if a.policy == PolicyFallback {
		a.logger.Warn("AI provider failed, using fallback",
			logging.String("provider", a.provider),
			logging.String("operation", op),
			logging.Err(err),
		)
		if f, ok := ctx.Value(fallbackKey{}).(*Fallbacks); ok {
			f.n.Add(1)
		}
		return nil
	}
	return errors.Wrap(err, errors.ErrCodeAnalysisFailed, "AI analysis failed").WithDetail("operation=" + op)
}

func (a *analyzer) Classify(ctx context.Context, text string) ([]Label, error) {
	var labels []Label
	err := a.call(ctx, "classify", func(ctx context.Context) (err error) {
		labels, err = a.text.Classify(ctx, text)
		return err
	})
	if err != nil {
		if herr := a.handle(ctx, "classify", err); herr != nil {
			return nil, herr
		}
		return []Label{}, nil
	}
	if len(labels) > MaxLabels {
		labels = labels[:MaxLabels]
	}
	return labels, nil
}

func (a *analyzer) Embed(ctx context.Context, text string) ([]float64, error) {
	var vec []float64
	err := a.call(ctx, "embed", func(ctx context.Context) (err error) {
		vec, err = a.text.Embed(ctx, text)
		return err
	})
	if err != nil {
		if herr := a.handle(ctx, "embed", err); herr != nil {
			return nil, herr
		}
		return nil, nil
	}
	return vec, nil
}

// Similarity embeds both texts and returns their cosine similarity.
func (a *analyzer) Similarity(ctx context.Context, x, y string) (float64, error) {
	vx, err := a.Embed(ctx, x)
	if err != nil {
		return 0, err
	}
	vy, err := a.Embed(ctx, y)
	if err != nil {
		return 0, err
	}
	return CosineSimilarity(vx, vy), nil
}

func (a *analyzer) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	var out string
	err := a.call(ctx, "summarize", func(ctx context.Context) (err error) {
		out, err = a.text.Summarize(ctx, text, maxLen)
		return err
	})
	if err != nil {
		if herr := a.handle(ctx, "summarize", err); herr != nil {
			return "", herr
		}
		return Truncate(text, maxLen), nil
	}
	return Truncate(out, maxLen), nil
}

func (a *analyzer) ExtractEntities(ctx context.Context, text string) (map[string][]string, error) {
	var out map[string][]string
	err := a.call(ctx, "extract_entities", func(ctx context.Context) (err error) {
		out, err = a.text.ExtractEntities(ctx, text)
		return err
	})
	if err != nil {
		if herr := a.handle(ctx, "extract_entities", err); herr != nil {
			return nil, herr
		}
		return map[string][]string{}, nil
	}
	if out == nil {
		out = map[string][]string{}
	}
	return out, nil
}

func (a *analyzer) AnalyzePatent(ctx context.Context, p PatentText) (QualityAnalysis, error) {
	var q QualityAnalysis
	err := a.call(ctx, "analyze_patent", func(ctx context.Context) (err error) {
		q, err = a.lang.AnalyzePatent(ctx, p)
		return err
	})
	if err != nil {
		if herr := a.handle(ctx, "analyze_patent", err); herr != nil {
			return QualityAnalysis{}, herr
		}
		return DefaultQuality(), nil
	}
	return q.Normalize(), nil
}

func (a *analyzer) Recommend(ctx context.Context, p PatentText, sim SimilarityResult, q QualityAnalysis) ([]string, error) {
	var recs []string
	err := a.call(ctx, "recommend", func(ctx context.Context) (err error) {
		recs, err = a.lang.Recommend(ctx, p, sim, q)
		return err
	})
	if err != nil {
		if herr := a.handle(ctx, "recommend", err); herr != nil {
			return nil, herr
		}
		return []string{}, nil
	}
	return nonNil(recs), nil
}

func (a *analyzer) SearchStrategy(ctx context.Context, p PatentText) (SearchStrategy, error) {
	var s SearchStrategy
	err := a.call(ctx, "search_strategy", func(ctx context.Context) (err error) {
		s, err = a.lang.SearchStrategy(ctx, p)
		return err
	})
	if err != nil {
		if herr := a.handle(ctx, "search_strategy", err); herr != nil {
			return SearchStrategy{}, herr
		}
		return SearchStrategy{Keywords: []string{}, Classifications: []string{}, Queries: []string{}}, nil
	}
	s.Keywords = nonNil(s.Keywords)
	s.Classifications = nonNil(s.Classifications)
	s.Queries = nonNil(s.Queries)
	return s, nil
}
