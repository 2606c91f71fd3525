package candidate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	domcand "github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/vector"
)

// Chunk hash fields. Must line up with what the record repository writes.
const (
	fieldVector    = "__vector"
	fieldContent   = "__content"
	fieldTitle     = "title"
	fieldSource    = "source"
	fieldDocID     = "doc_id"
	fieldCreatedAt = "created_at"
)

const snippetRunes = 200

var (
	indexName = domain.KeyPrefix + "records:idx"
	keyPrefix = domain.KeyPrefix + "records:"
)

// store is the consumer interface for candidate retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SupportsTextSearch(ctx context.Context) bool
}

// Repo retrieves ranking candidates from the FT index. Hits come back at
// chunk granularity; Fetch folds them into one candidate per document
// carrying the strongest signal of each kind.
type Repo struct {
	store store
}

// New creates a candidate repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SupportsTextSearch proxies the capability check from the store.
func (r *Repo) SupportsTextSearch(ctx context.Context) bool {
	return r.store.SupportsTextSearch(ctx)
}

// Fetch runs the retrieval branches the inputs allow: KNN when a query
// vector is present, BM25 when the store supports text search, in
// parallel, and merges chunk hits into document candidates. A store
// without text search downgrades to KNN-only retrieval; an actual branch
// failure fails the fetch.
func (r *Repo) Fetch(
	ctx context.Context,
	text string, queryVec []float32,
	sources []source.Type, cfg relevance.Config,
) ([]domcand.Candidate, error) {
	topK := cfg.Semantic().TopK()
	tags := buildSourceFilter(sources)
	returnFields := []string{fieldContent, fieldTitle, fieldSource, fieldDocID, fieldCreatedAt}

	// Keyword hits additionally return their stored chunk vector so merge
	// can compute a similarity for documents the KNN arm never saw.
	bm25Fields := returnFields
	if len(queryVec) > 0 {
		bm25Fields = append([]string{fieldVector}, returnFields...)
	}

	var knnRes, bm25Res *db.SearchResult

	g, gctx := errgroup.WithContext(ctx)

	if len(queryVec) > 0 {
		g.Go(func() error {
			res, err := r.store.SearchKNN(gctx, &db.KNNQuery{
				IndexName:    indexName,
				Tags:         tags,
				Vector:       queryVec,
				K:            topK,
				ReturnFields: returnFields,
			})
			if err != nil {
				return fmt.Errorf("search knn: %w", err)
			}
			knnRes = res
			return nil
		})
	}

	if text != "" && r.store.SupportsTextSearch(ctx) {
		g.Go(func() error {
			q := &db.TextQuery{
				IndexName:    indexName,
				Query:        text,
				Tags:         tags,
				TopK:         topK,
				ReturnFields: bm25Fields,
				Fuzzy:        cfg.FullText().FuzzyDistance(),
			}
			if cfg.FullText().EnableStemming() {
				q.Language = cfg.FullText().SearchConfig()
			}
			res, err := r.store.SearchBM25(gctx, q)
			if err != nil {
				return fmt.Errorf("search bm25: %w", err)
			}
			bm25Res = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(text, queryVec, knnRes, bm25Res, cfg), nil
}

// accum collects the per-document best signals across chunk hits.
type accum struct {
	id        string
	src       string
	title     string
	snippet   string
	snipScore float64
	createdAt string
	text      float64
	semantic  *float64
	vecRaw    string
	exact     bool
}

// merge folds chunk-level hits into one candidate per document. Semantic
// and text scores each take the document's best chunk; the exact-match
// flag is an OR across chunks; the snippet follows the strongest hit.
// Documents found only by keyword search get their similarity computed
// here from the stored chunk vector, so the scorer sees a semantic signal
// for them too.
func merge(queryText string, queryVec []float32, knn, bm25 *db.SearchResult, cfg relevance.Config) []domcand.Candidate {
	docs := make(map[string]*accum)
	minSim := cfg.Semantic().MinSimilarity()

	if knn != nil {
		for _, e := range knn.Entries {
			// под-пороговые чанки не несут семантического сигнала
			if e.Score < minSim {
				continue
			}
			a := docFor(docs, e)
			if a == nil {
				continue
			}
			if a.semantic == nil || e.Score > *a.semantic {
				s := e.Score
				a.semantic = &s
			}
			a.absorb(e, e.Score, queryText)
		}
	}

	if bm25 != nil {
		for _, e := range bm25.Entries {
			a := docFor(docs, e)
			if a == nil {
				continue
			}
			// raw BM25 is unbounded; s/(s+1) maps it onto [0,1)
			norm := e.Score / (e.Score + 1)
			if norm > a.text {
				a.text = norm
			}
			a.absorb(e, norm, queryText)
		}
	}

	if len(queryVec) > 0 {
		backfillSimilarity(docs, queryVec, minSim)
	}

	now := float64(time.Now().UTC().Unix())
	out := make([]domcand.Candidate, 0, len(docs))
	for _, a := range docs {
		out = append(out, domcand.Candidate{
			ID:               a.id,
			Source:           source.Type(a.src),
			Title:            a.title,
			Snippet:          truncateRunes(a.snippet, snippetRunes),
			RawTextScore:     a.text,
			RawSemanticScore: a.semantic,
			AgeDays:          ageDays(now, a.createdAt),
			TitleMatch:       a.title != "" && containsIgnoreCase(a.title, queryText),
			ExactMatch:       a.exact,
		})
	}

	// deterministic output; the scorer re-sorts by its own keys anyway
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// docFor resolves the entry's document and returns its accumulator,
// creating one on first sight. Entries whose document cannot be
// identified are skipped.
func docFor(docs map[string]*accum, e db.SearchEntry) *accum {
	id := e.Fields[fieldDocID]
	if id == "" {
		id = docIDFromKey(e.Key)
	}
	if id == "" {
		return nil
	}

	a, ok := docs[id]
	if !ok {
		a = &accum{
			id:        id,
			src:       e.Fields[fieldSource],
			title:     e.Fields[fieldTitle],
			createdAt: e.Fields[fieldCreatedAt],
		}
		docs[id] = a
	}
	return a
}

// absorb folds one chunk hit into the accumulator: snippet follows the
// highest branch score, exact match is sticky, the first chunk vector
// seen is kept for similarity backfill.
func (a *accum) absorb(e db.SearchEntry, branchScore float64, queryText string) {
	content := e.Fields[fieldContent]
	if content != "" && (a.snippet == "" || branchScore > a.snipScore) {
		a.snippet = content
		a.snipScore = branchScore
	}
	if !a.exact && content != "" && containsIgnoreCase(content, queryText) {
		a.exact = true
	}
	if a.vecRaw == "" {
		a.vecRaw = e.Fields[fieldVector]
	}
}

// backfillSimilarity computes cosine similarity against the query vector
// for documents the KNN arm never scored. Sub-threshold similarities are
// dropped like sub-threshold KNN hits; undecodable or mismatched vectors
// leave the candidate keyword-only rather than failing the query.
func backfillSimilarity(docs map[string]*accum, queryVec []float32, minSim float64) {
	for _, a := range docs {
		if a.semantic != nil || a.vecRaw == "" {
			continue
		}
		vec, err := vector.FromBytes([]byte(a.vecRaw))
		if err != nil {
			continue
		}
		sim, err := vector.Cosine(queryVec, vec)
		if err != nil || sim < minSim {
			continue
		}
		a.semantic = &sim
	}
}

// docIDFromKey strips the key prefix and the trailing chunk ordinal:
// "relevance:records:<doc>:<n>" -> "<doc>". Document IDs cannot contain
// colons, so the last separator always belongs to the ordinal.
func docIDFromKey(key string) string {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return ""
	}
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 {
		return ""
	}
	return rest[:i]
}

// ageDays converts the stored creation timestamp (unix seconds) into age.
// Unparseable values become NaN and surface as scoring exclusions instead
// of silently ranking as fresh.
func ageDays(nowUnix float64, createdAt string) float64 {
	v, err := strconv.ParseFloat(createdAt, 64)
	if err != nil {
		return math.NaN()
	}
	return (nowUnix - v) / 86400.0
}

func buildSourceFilter(sources []source.Type) []db.TagFilter {
	if len(sources) == 0 {
		return nil
	}
	vals := make([]string, len(sources))
	for i, t := range sources {
		vals[i] = string(t)
	}
	return []db.TagFilter{{Field: fieldSource, Values: vals}}
}

func containsIgnoreCase(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
