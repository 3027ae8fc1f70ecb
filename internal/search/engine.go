package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/po-you/poyou/internal/feature"
	"github.com/po-you/poyou/internal/models"
	"github.com/po-you/poyou/internal/store"
)

const (
	dateLayout = "2006-01-02"
	// defaultMinSimilarity is the cosine cutoff; results at or below it are dropped.
	defaultMinSimilarity = 0.01
)

// Engine answers filtered, ranked poster queries over a cached TF-IDF
// snapshot of the store. The snapshot carries a version; Invalidate bumps the
// counter and the next query rebuilds. No hidden global state.
type Engine struct {
	store         store.Store
	logger        *zap.Logger
	minSimilarity float64

	version atomic.Uint64
	mu      sync.RWMutex
	snap    *snapshot
}

type snapshot struct {
	version    uint64
	vectorizer *Vectorizer
	entries    []*entry
}

type entry struct {
	poster    *models.Poster
	tagString string
	vec       SparseVec
}

// NewEngine creates an engine over st. minSimilarity <= 0 selects the default
// cutoff of 0.01.
func NewEngine(st store.Store, minSimilarity float64, logger *zap.Logger) *Engine {
	if minSimilarity <= 0 {
		minSimilarity = defaultMinSimilarity
	}
	return &Engine{store: st, logger: logger, minSimilarity: minSimilarity}
}

// Invalidate marks the cached snapshot stale. Called after every store
// mutation; the rebuild happens lazily on the next query.
func (e *Engine) Invalidate() {
	e.version.Add(1)
}

// Version returns the current snapshot version counter.
func (e *Engine) Version() uint64 { return e.version.Load() }

// Size returns the number of indexed posters in the cached snapshot, or 0
// when no snapshot has been built yet.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.snap == nil {
		return 0
	}
	return len(e.snap.entries)
}

// currentSnapshot returns a snapshot matching the current version, rebuilding
// from the store when stale. An empty corpus yields an empty snapshot, not an
// error. Records with inverted periods are excluded with a logged error.
func (e *Engine) currentSnapshot(ctx context.Context) (*snapshot, error) {
	want := e.version.Load()
	e.mu.RLock()
	if e.snap != nil && e.snap.version == want {
		snap := e.snap
		e.mu.RUnlock()
		return snap, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	want = e.version.Load()
	if e.snap != nil && e.snap.version == want {
		return e.snap, nil
	}

	posters, err := e.store.List(ctx, &models.ListQuery{Order: models.OrderNew})
	if err != nil {
		return nil, err
	}
	entries := make([]*entry, 0, len(posters))
	corpus := make([]string, 0, len(posters))
	for _, p := range posters {
		if p.Period.Inverted() {
			e.logger.Warn("excluding poster with inverted period from index",
				zap.String("id", p.ID), zap.String("start", p.Period.Start), zap.String("end", p.Period.End))
			continue
		}
		searchText := feature.BuildSearchText(&p.PosterInput)
		tagString := feature.BuildTagString(&p.PosterInput)
		if tagString != "" {
			// Tags feed the text signal as well as the tag filter.
			searchText = searchText + " " + tagString
		}
		entries = append(entries, &entry{poster: p, tagString: tagString})
		corpus = append(corpus, searchText)
	}
	vectorizer := FitVectorizer(corpus)
	for i, en := range entries {
		en.vec = vectorizer.Transform(corpus[i])
	}
	e.snap = &snapshot{version: want, vectorizer: vectorizer, entries: entries}
	e.logger.Debug("search index rebuilt",
		zap.Uint64("version", want), zap.Int("posters", len(entries)), zap.Int("vocab", vectorizer.VocabSize()))
	return e.snap, nil
}

// Search runs the filter/rank pipeline: status filter, category filter, tag
// filter, then keyword cosine ranking (which overrides any sort request) or
// the requested sort. Ties keep the store's iteration order (stable sorts).
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	// HTTP callers cap the limit per config before this point.
	if err := q.Validate(0, 0); err != nil {
		return nil, err
	}
	snap, err := e.currentSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	ref := time.Now()
	if q.ReferenceDate != "" {
		if parsed, err := time.Parse(dateLayout, q.ReferenceDate); err == nil {
			ref = parsed
		} else {
			e.logger.Warn("ignoring unparsable reference date", zap.String("ref", q.ReferenceDate))
		}
	}

	retained := make([]*entry, 0, len(snap.entries))
	for _, en := range snap.entries {
		if len(q.Statuses) > 0 && !statusIn(en.poster.Period.Status(ref), q.Statuses) {
			continue
		}
		if len(q.Categories) > 0 && !containsAny(en.tagString, q.Categories) {
			continue
		}
		if q.Tag != "" && !strings.Contains(en.tagString, strings.ToLower(q.Tag)) {
			continue
		}
		retained = append(retained, en)
	}

	scores := make(map[*entry]float64)
	if q.Keyword != "" {
		qvec := snap.vectorizer.Transform(feature.Normalize(q.Keyword))
		ranked := retained[:0]
		for _, en := range retained {
			sim := Cosine(qvec, en.vec)
			if sim <= e.minSimilarity {
				continue
			}
			scores[en] = sim
			ranked = append(ranked, en)
		}
		retained = ranked
		sort.SliceStable(retained, func(i, j int) bool {
			return scores[retained[i]] > scores[retained[j]]
		})
	} else if q.Order == models.OrderTitle {
		sort.SliceStable(retained, func(i, j int) bool {
			return strings.ToLower(retained[i].poster.Title) < strings.ToLower(retained[j].poster.Title)
		})
	} else {
		sort.SliceStable(retained, func(i, j int) bool {
			return retained[i].poster.CreatedAt.After(retained[j].poster.CreatedAt)
		})
	}

	total := len(retained)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	results := make([]*models.SearchResult, 0, end-start)
	for i, en := range retained[start:end] {
		results = append(results, &models.SearchResult{
			Poster: en.poster,
			Score:  scores[en],
			Status: en.poster.Period.Status(ref),
			Rank:   start + i + 1,
		})
	}
	return &models.SearchResponse{
		Results:      results,
		Total:        total,
		QueryTime:    time.Since(startTime).Milliseconds(),
		IndexVersion: snap.version,
	}, nil
}

// Similar returns up to limit posters sharing the subject's first tag,
// newest first, excluding the subject itself.
func (e *Engine) Similar(ctx context.Context, id string, limit int) ([]*models.SearchResult, error) {
	subject, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tag := firstTag(&subject.PosterInput)
	if tag == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 3
	}
	resp, err := e.Search(ctx, &models.SearchQuery{Tag: tag, Order: models.OrderNew, Limit: limit + 1})
	if err != nil {
		return nil, err
	}
	similar := make([]*models.SearchResult, 0, limit)
	for _, r := range resp.Results {
		if r.Poster.ID == id {
			continue
		}
		similar = append(similar, r)
		if len(similar) == limit {
			break
		}
	}
	return similar, nil
}

func firstTag(in *models.PosterInput) string {
	for _, s := range in.Subcategories {
		if t := strings.TrimSpace(s); t != "" {
			return strings.ToLower(t)
		}
	}
	if in.Category.Valid() {
		return strings.ToLower(string(in.Category))
	}
	return ""
}

func statusIn(s models.Status, set []models.Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsAny(tagString string, values []string) bool {
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" && strings.Contains(tagString, v) {
			return true
		}
	}
	return false
}
