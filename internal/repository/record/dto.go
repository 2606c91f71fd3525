package record

import (
	"strconv"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/chunk"
	domrec "github.com/talyssonoliver/intelliflow-relevance/internal/domain/record"
	"github.com/talyssonoliver/intelliflow-relevance/internal/domain/vector"
)

// buildHashFields flattens one chunk of a record into HSET fields. Title,
// source and creation time repeat on every chunk so any single hit carries
// the full candidate context.
func buildHashFields(rec domrec.Record, c chunk.Chunk, n int, vec []float32) map[string]string {
	return map[string]string{
		fieldVector:    string(vector.Bytes(vec)),
		fieldContent:   c.Text(),
		fieldTitle:     rec.Title(),
		fieldSource:    string(rec.Source()),
		fieldDocID:     rec.ID(),
		fieldCreatedAt: strconv.FormatInt(rec.CreatedAt().Unix(), 10),
		fieldChunk:     strconv.Itoa(n),
	}
}
