// Package report composes prior-art search reports and AI analyses for a
// patent from its owner's portfolio and the configured analyzer.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/patentdesk/internal/application/events"
	"github.com/turtacn/patentdesk/internal/domain/patent"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/internal/intelligence"
	"github.com/turtacn/patentdesk/pkg/errors"
)

// MaxReferences caps the prior-art references kept in a report.
const MaxReferences = 10

// embedConcurrency bounds parallel embedding calls over the corpus.
const embedConcurrency = 8

// SummaryMaxLen bounds the technical summary in runes.
const SummaryMaxLen = 600

// Service defines the analysis operations on a single patent.
type Service interface {
	GenerateReport(ctx context.Context, ownerID, patentID uuid.UUID) (*patent.SearchReport, error)
	GetSimilarPatents(ctx context.Context, ownerID, patentID uuid.UUID) ([]*patent.SimilarPatent, error)
	GetAIAnalysis(ctx context.Context, ownerID, patentID uuid.UUID) (*patent.AIAnalysis, error)
	GetSearchStrategy(ctx context.Context, ownerID, patentID uuid.UUID) (*patent.SearchStrategy, error)
	ComparePatents(ctx context.Context, ownerID, patentID, otherID uuid.UUID) (float64, error)
}

// AnalysisCache memoizes analyses. hit is false whenever the value was
// produced by a load, including a load shared with a concurrent caller.
type AnalysisCache interface {
	GetOrSet(ctx context.Context, key string, dest any, ttl time.Duration, loader func(ctx context.Context) (any, bool, error)) (hit bool, err error)
}

// Options configures matching and caching.
type Options struct {
	MatchThreshold float64
	CorpusLimit    int
	CacheTTL       time.Duration
}

type serviceImpl struct {
	repo     patent.Repository
	analyzer intelligence.Analyzer
	cache    AnalysisCache
	emitter  *events.Emitter
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
	opts     Options
	now      func() time.Time
}

// NewService creates the report service.
func NewService(
	repo patent.Repository,
	analyzer intelligence.Analyzer,
	cache AnalysisCache,
	emitter *events.Emitter,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
	opts Options,
) Service {
	return &serviceImpl{
		repo:     repo,
		analyzer: analyzer,
		cache:    cache,
		emitter:  emitter,
		metrics:  metrics,
		logger:   logger.Named("report"),
		opts:     opts,
		now:      time.Now,
	}
}

func (s *serviceImpl) loadOwned(ctx context.Context, ownerID, id uuid.UUID) (*patent.Patent, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(ownerID) {
		return nil, errors.New(errors.ErrCodePatentNotFound, "patent not found")
	}
	return p, nil
}

func (s *serviceImpl) GenerateReport(ctx context.Context, ownerID, patentID uuid.UUID) (*patent.SearchReport, error) {
	start := s.now()
	report, err := s.generate(ctx, ownerID, patentID)
	if err != nil && !errors.IsNotFound(err) {
		s.metrics.RecordReport(false, time.Since(start))
		s.logger.Error("search report failed", logging.String("patent_id", patentID.String()), logging.Err(err))
	}
	if err == nil {
		s.metrics.RecordReport(true, time.Since(start))
	}
	return report, err
}

func (s *serviceImpl) generate(ctx context.Context, ownerID, patentID uuid.UUID) (*patent.SearchReport, error) {
	p, err := s.loadOwned(ctx, ownerID, patentID)
	if err != nil {
		return nil, err
	}
	text := intelligence.TextOf(p)

	var (
		sim     intelligence.SimilarityResult
		quality intelligence.QualityAnalysis
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scored, err := s.scoreCorpus(gctx, p)
		if err != nil {
			return err
		}
		sim, err = s.references(gctx, p, scored)
		return err
	})
	g.Go(func() error {
		q, err := s.analyzer.AnalyzePatent(gctx, text)
		if err != nil {
			return err
		}
		quality = q.Normalize()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs, err := s.analyzer.Recommend(ctx, text, sim, quality)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []string{}
	}

	report := &patent.SearchReport{
		SimilarityScore:    patent.Clamp(sim.Overall*100, 0, 100),
		PriorArtReferences: sim.References,
		AIAnalysis: patent.NewAIAnalysis(quality.TechnicalComplexity, quality.MarketPotential,
			quality.InnovationScore, quality.Opportunities, quality.Risks),
		Recommendations: recs,
		GeneratedAt:     s.now().UTC(),
	}
	uniqueness := patent.UniquenessFromSimilarity(sim.Overall)
	if err := s.repo.SaveReport(ctx, p.ID, report, uniqueness, quality.MarketPotential); err != nil {
		return nil, err
	}
	p.SearchReport = report
	p.UniquenessScore = &uniqueness
	p.MarketPotential = &quality.MarketPotential

	s.logger.Info("search report generated",
		logging.String("patent_id", p.ID.String()),
		logging.Float64("similarity", report.SimilarityScore),
		logging.Int("references", len(report.PriorArtReferences)))
	s.emitter.Emit(ctx, patent.NewReportGeneratedEvent(p, report))
	return report, nil
}

// GetSimilarPatents returns the owner's other patents at or above the match
// threshold, most similar first, each with its similarity on a 0..100 scale.
func (s *serviceImpl) GetSimilarPatents(ctx context.Context, ownerID, patentID uuid.UUID) ([]*patent.SimilarPatent, error) {
	p, err := s.loadOwned(ctx, ownerID, patentID)
	if err != nil {
		return nil, err
	}
	scored, err := s.scoreCorpus(ctx, p)
	if err != nil {
		return nil, err
	}
	out := make([]*patent.SimilarPatent, 0, len(scored))
	for _, sc := range scored {
		if sc.score < s.opts.MatchThreshold {
			break
		}
		out = append(out, &patent.SimilarPatent{
			Patent:          sc.patent,
			SimilarityScore: patent.Clamp(sc.score*100, 0, 100),
		})
	}
	return out, nil
}

// ComparePatents scores two of the owner's patents against each other on a
// 0..100 scale.
func (s *serviceImpl) ComparePatents(ctx context.Context, ownerID, patentID, otherID uuid.UUID) (float64, error) {
	a, err := s.loadOwned(ctx, ownerID, patentID)
	if err != nil {
		return 0, err
	}
	b, err := s.loadOwned(ctx, ownerID, otherID)
	if err != nil {
		return 0, err
	}
	sim, err := s.analyzer.Similarity(ctx, intelligence.TextOf(a).Full(), intelligence.TextOf(b).Full())
	if err != nil {
		return 0, err
	}
	return patent.Clamp(sim*100, 0, 100), nil
}

// GetAIAnalysis is cached per patent revision. An analysis in which any
// provider call fell back to defaults is returned but not cached.
func (s *serviceImpl) GetAIAnalysis(ctx context.Context, ownerID, patentID uuid.UUID) (*patent.AIAnalysis, error) {
	p, err := s.loadOwned(ctx, ownerID, patentID)
	if err != nil {
		return nil, err
	}
	var out patent.AIAnalysis
	hit, err := s.cache.GetOrSet(ctx, patent.AnalysisCacheKey(p.ID, p.UpdatedAt), &out, s.opts.CacheTTL,
		func(ctx context.Context) (any, bool, error) {
			ctx, fallbacks := intelligence.TrackFallbacks(ctx)
			a, err := s.analyze(ctx, p)
			if err != nil {
				return nil, false, err
			}
			if fallbacks.Used() {
				s.logger.Warn("analysis used fallback values, not caching", logging.String("patent_id", p.ID.String()))
				return a, false, nil
			}
			return a, true, nil
		})
	s.metrics.RecordCacheAccess("analysis", hit)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// analyze runs the quality analysis and the text-model passes in parallel.
func (s *serviceImpl) analyze(ctx context.Context, p *patent.Patent) (patent.AIAnalysis, error) {
	var (
		quality  intelligence.QualityAnalysis
		labels   []intelligence.Label
		entities map[string][]string
		summary  string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		quality, err = s.analyzer.AnalyzePatent(gctx, intelligence.TextOf(p))
		return err
	})
	g.Go(func() (err error) {
		labels, err = s.analyzer.Classify(gctx, p.Description)
		return err
	})
	g.Go(func() (err error) {
		entities, err = s.analyzer.ExtractEntities(gctx, p.Description)
		return err
	})
	g.Go(func() (err error) {
		summary, err = s.analyzer.Summarize(gctx, p.Description, SummaryMaxLen)
		return err
	})
	if err := g.Wait(); err != nil {
		return patent.AIAnalysis{}, err
	}

	q := quality.Normalize()
	return patent.NewAIAnalysis(q.TechnicalComplexity, q.MarketPotential, q.InnovationScore, q.Opportunities, q.Risks).
		WithTechnicalProfile(labels, intelligence.KeyFeatures(entities), summary), nil
}

// GetSearchStrategy suggests keywords, classifications and queries for a
// prior-art search, along with the features and fields the text model sees.
func (s *serviceImpl) GetSearchStrategy(ctx context.Context, ownerID, patentID uuid.UUID) (*patent.SearchStrategy, error) {
	p, err := s.loadOwned(ctx, ownerID, patentID)
	if err != nil {
		return nil, err
	}
	var (
		strategy intelligence.SearchStrategy
		labels   []intelligence.Label
		entities map[string][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		strategy, err = s.analyzer.SearchStrategy(gctx, intelligence.TextOf(p))
		return err
	})
	g.Go(func() (err error) {
		labels, err = s.analyzer.Classify(gctx, p.Description)
		return err
	})
	g.Go(func() (err error) {
		entities, err = s.analyzer.ExtractEntities(gctx, p.Description)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if labels == nil {
		labels = []intelligence.Label{}
	}
	return &patent.SearchStrategy{
		Keywords:                nonNil(strategy.Keywords),
		Classifications:         nonNil(strategy.Classifications),
		SearchQueries:           nonNil(strategy.Queries),
		KeyFeatures:             intelligence.KeyFeatures(entities),
		TechnicalClassification: labels,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type scoredPatent struct {
	patent *patent.Patent
	score  float64
}

// scoreCorpus embeds p and every other patent of its owner and returns the
// corpus ordered by cosine similarity, most similar first.
func (s *serviceImpl) scoreCorpus(ctx context.Context, p *patent.Patent) ([]scoredPatent, error) {
	corpus, err := s.repo.ListCorpus(ctx, p.OwnerID, p.ID, s.opts.CorpusLimit)
	if err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return nil, nil
	}
	source, err := s.analyzer.Embed(ctx, intelligence.TextOf(p).Full())
	if err != nil {
		return nil, err
	}

	scored := make([]scoredPatent, len(corpus))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, c := range corpus {
		i, c := i, c
		g.Go(func() error {
			vec, err := s.analyzer.Embed(gctx, intelligence.TextOf(c).Full())
			if err != nil {
				return err
			}
			scored[i] = scoredPatent{patent: c, score: intelligence.CosineSimilarity(source, vec)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored, nil
}

// references turns the scored corpus into the similarity half of a report.
func (s *serviceImpl) references(ctx context.Context, p *patent.Patent, scored []scoredPatent) (intelligence.SimilarityResult, error) {
	res := intelligence.SimilarityResult{References: []patent.PriorArtReference{}}
	if len(scored) == 0 {
		return res, nil
	}
	res.Overall = scored[0].score

	var sourceClaims [][]float64
	for _, sc := range scored {
		if sc.score < s.opts.MatchThreshold || len(res.References) == MaxReferences {
			break
		}
		if sourceClaims == nil && len(p.Claims) > 0 {
			vecs, err := s.embedAll(ctx, p.Claims)
			if err != nil {
				return res, err
			}
			sourceClaims = vecs
		}
		claims, err := s.matchingClaims(ctx, sourceClaims, sc.patent.Claims)
		if err != nil {
			return res, err
		}
		res.References = append(res.References, patent.PriorArtReference{
			PatentNumber:    referenceNumber(sc.patent),
			Title:           sc.patent.Title,
			RelevanceScore:  patent.Clamp(sc.score*100, 0, 100),
			MatchingClaims:  claims,
			PublicationDate: publicationDate(sc.patent),
		})
	}
	return res, nil
}

// matchingClaims returns the candidate claims close enough to any source
// claim.
func (s *serviceImpl) matchingClaims(ctx context.Context, source [][]float64, candidates []string) ([]string, error) {
	out := []string{}
	if len(source) == 0 || len(candidates) == 0 {
		return out, nil
	}
	vecs, err := s.embedAll(ctx, candidates)
	if err != nil {
		return nil, err
	}
	for i, v := range vecs {
		for _, src := range source {
			if intelligence.CosineSimilarity(src, v) >= s.opts.MatchThreshold {
				out = append(out, candidates[i])
				break
			}
		}
	}
	return out, nil
}

func (s *serviceImpl) embedAll(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := s.analyzer.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func referenceNumber(p *patent.Patent) string {
	if p.PatentNumber != "" {
		return p.PatentNumber
	}
	return p.ID.String()
}

func publicationDate(p *patent.Patent) *time.Time {
	if p.GrantDate != nil {
		return p.GrantDate
	}
	return p.FilingDate
}
