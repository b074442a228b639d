package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeVector packs float32 values into a little-endian BLOB; the length
// is recovered from the blob size on decode.
func encodeVector(vec []float32) []byte {
	b := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// decodeVector unpacks a BLOB produced by encodeVector, enforcing the
// expected width. Mixed vector widths within one store are a hard error,
// never silently truncated or padded.
func decodeVector(b []byte, wantDim int) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("store: invalid vector blob length %d", len(b))
	}
	n := len(b) / 4
	if wantDim > 0 && n != wantDim {
		return nil, fmt.Errorf("store: vector width %d, store dimension %d", n, wantDim)
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return vec, nil
}
