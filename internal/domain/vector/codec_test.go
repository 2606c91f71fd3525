package vector

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/talyssonoliver/intelliflow-relevance/internal/domain"
)

func TestEncode_Format(t *testing.T) {
	got := Encode([]float32{0.1, -2, 3.5})
	want := "[0.1,-2,3.5]"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestEncode_Empty(t *testing.T) {
	if got := Encode(nil); got != "[]" {
		t.Errorf("Encode(nil) = %q, want %q", got, "[]")
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
	}{
		{"single", []float32{42}},
		{"signs", []float32{-1.5, 0, 2.25}},
		{"small magnitudes", []float32{1e-7, -3.2e-5, 9.99e-9}},
		{"large magnitudes", []float32{1e30, -2.5e20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Decode(Encode(tt.vec))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(decoded) != len(tt.vec) {
				t.Fatalf("len = %d, want %d", len(decoded), len(tt.vec))
			}
			for i := range tt.vec {
				if decoded[i] != tt.vec[i] {
					t.Errorf("component %d = %v, want %v", i, decoded[i], tt.vec[i])
				}
			}
		})
	}
}

func TestRoundTrip_EmbeddingDimension(t *testing.T) {
	// Production embeddings are 1536-dimensional; the codec must survive
	// a full-size vector bit-for-bit.
	rng := rand.New(rand.NewSource(1))
	vec := make([]float32, 1536)
	for i := range vec {
		vec[i] = (rng.Float32() - 0.5) * 2
	}

	decoded, err := Decode(Encode(vec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decoded) != 1536 {
		t.Fatalf("len = %d, want 1536", len(decoded))
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Fatalf("component %d = %v, want %v", i, decoded[i], vec[i])
		}
	}
}

func TestDecode_Whitespace(t *testing.T) {
	got, err := Decode("  [ 0.1 , 0.2 ,\t0.3 ]  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != 0.1 || got[1] != 0.2 || got[2] != 0.3 {
		t.Errorf("Decode() = %v", got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no brackets", "0.1,0.2"},
		{"missing open", "0.1,0.2]"},
		{"missing close", "[0.1,0.2"},
		{"non-numeric", "[0.1,abc,0.3]"},
		{"empty component", "[0.1,,0.3]"},
		{"trailing comma", "[0.1,0.2,]"},
		{"nan", "[NaN]"},
		{"inf", "[Inf]"},
		{"overflow", "[1e400]"},
		{"empty string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.input)
			if !errors.Is(err, domain.ErrMalformedVector) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformedVector", tt.input, err)
			}
		})
	}
}

func TestDecode_EmptyVector(t *testing.T) {
	got, err := Decode("[]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Decode(\"[]\") = %v, want empty", got)
	}
}
