package resultcache

import (
	"context"
	"time"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/candidate"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/ranking"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// mockStore implements the consumer interface over a plain map.
type mockStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	delErr  error
	deleted []string
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func f64(v float64) *float64 { return &v }

// twoResults builds a small scored set: one semantic hit, one keyword-only.
func twoResults() []ranking.ScoredResult {
	first := candidate.Candidate{
		ID:               "deal-7",
		Source:           source.Opportunities,
		Title:            "Enterprise renewal",
		Snippet:          "Renewal discussion for the enterprise tier",
		RawTextScore:     0.8,
		RawSemanticScore: f64(0.91),
		AgeDays:          2,
		TitleMatch:       true,
	}
	second := candidate.Candidate{
		ID:           "msg-3",
		Source:       source.Messages,
		Snippet:      "thread about pricing",
		RawTextScore: 0.4,
		AgeDays:      40,
		ExactMatch:   true,
	}
	return []ranking.ScoredResult{
		ranking.NewScoredResult(first, 1.31, ranking.NewBreakdown(0.32, 0.364, 0.196, 2.0, 1.0, 1.2)),
		ranking.NewScoredResult(second, 0.22, ranking.NewBreakdown(0.16, 0, 0.03, 1.0, 1.5, 0.8)),
	}
}

// assertSameResults compares two result sets field by field.
func assertSameResults(t interface {
	Helper()
	Errorf(format string, args ...any)
}, got, want []ranking.ScoredResult,
) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("result count = %d, want %d", len(got), len(want))
		return
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Score() != w.Score() {
			t.Errorf("[%d] score = %v, want %v", i, g.Score(), w.Score())
		}
		gc, wc := g.Candidate(), w.Candidate()
		if gc.ID != wc.ID || gc.Source != wc.Source || gc.Title != wc.Title || gc.Snippet != wc.Snippet {
			t.Errorf("[%d] candidate = %+v, want %+v", i, gc, wc)
		}
		if gc.RawTextScore != wc.RawTextScore || gc.AgeDays != wc.AgeDays ||
			gc.TitleMatch != wc.TitleMatch || gc.ExactMatch != wc.ExactMatch {
			t.Errorf("[%d] candidate signals = %+v, want %+v", i, gc, wc)
		}
		if (gc.RawSemanticScore == nil) != (wc.RawSemanticScore == nil) {
			t.Errorf("[%d] semantic presence mismatch", i)
		} else if gc.RawSemanticScore != nil && *gc.RawSemanticScore != *wc.RawSemanticScore {
			t.Errorf("[%d] semantic = %v, want %v", i, *gc.RawSemanticScore, *wc.RawSemanticScore)
		}
		if g.Breakdown() != w.Breakdown() {
			t.Errorf("[%d] breakdown = %+v, want %+v", i, g.Breakdown(), w.Breakdown())
		}
	}
}
