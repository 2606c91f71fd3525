package vector

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
)

// Bytes packs a vector as little-endian float32, the layout vector index
// fields are declared with (TYPE FLOAT32). Used for hash storage and for
// KNN query BLOB params.
func Bytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// FromBytes unpacks little-endian float32 bytes back into a vector.
func FromBytes(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, domain.NewMalformedVector(strconv.Itoa(len(data))+" bytes", "not a multiple of 4")
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}
