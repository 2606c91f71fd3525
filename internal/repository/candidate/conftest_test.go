package candidate

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/relevance"
)

// mockStore implements the consumer interface and captures the queries.
type mockStore struct {
	knnRes   *db.SearchResult
	knnErr   error
	knnGot   *db.KNNQuery
	bm25Res  *db.SearchResult
	bm25Err  error
	bm25Got  *db.TextQuery
	supports bool
}

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.knnGot = q
	return m.knnRes, m.knnErr
}

func (m *mockStore) SearchBM25(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.bm25Got = q
	return m.bm25Res, m.bm25Err
}

func (m *mockStore) SupportsTextSearch(context.Context) bool { return m.supports }

func mustCfg(t *testing.T, o *relevance.Override) relevance.Config {
	t.Helper()
	cfg, err := relevance.Resolve("default", o)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	return cfg
}

func chunkKey(docID string, n int) string {
	return fmt.Sprintf("%srecords:%s:%d", domain.KeyPrefix, docID, n)
}

func chunkFields(docID, src, title, content string, createdAt int64) map[string]string {
	return map[string]string{
		fieldDocID:     docID,
		fieldSource:    src,
		fieldTitle:     title,
		fieldContent:   content,
		fieldCreatedAt: strconv.FormatInt(createdAt, 10),
	}
}

func daysAgo(n int) int64 {
	return time.Now().UTC().Add(-time.Duration(n) * 24 * time.Hour).Unix()
}

func queryVector() []float32 { return []float32{0.1, 0.2, 0.3} }
