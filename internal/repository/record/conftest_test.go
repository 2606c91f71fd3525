package record

import (
	"context"
	"testing"
	"time"

	"github.com/talyssonoliver/intelliflow-relevance/internal/db"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/chunk"
	domrec "github.com/talyssonoliver/intelliflow-relevance/internal/domain/record"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/source"
)

// mockStore implements the consumer interface and records every call.
type mockStore struct {
	items       []db.HashSetItem
	hsetErr     error
	scanKeys    []string
	scanErr     error
	scanPattern string
	deleted     []string
	delErr      error

	createdDef   *db.IndexDefinition
	createErr    error
	indexExists  bool
	existsErr    error
	supportsText bool
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.items = items
	return m.hsetErr
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.scanPattern = pattern
	return m.scanKeys, m.scanErr
}

func (m *mockStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	m.createdDef = def
	return m.createErr
}

func (m *mockStore) IndexExists(_ context.Context, _ string) (bool, error) {
	return m.indexExists, m.existsErr
}

func (m *mockStore) SupportsTextSearch(context.Context) bool { return m.supportsText }

func mustRecord(t *testing.T, id, body string) domrec.Record {
	t.Helper()
	rec, err := domrec.New(id, source.Opportunities, "Enterprise renewal",
		body, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return rec
}

func mustChunks(t *testing.T, body string, size, overlap int) []chunk.Chunk {
	t.Helper()
	chunks, err := chunk.Split(body, size, overlap)
	if err != nil {
		t.Fatalf("split body: %v", err)
	}
	return chunks
}
