package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/andybalholm/brotli"
)

// envelope wraps a cached payload with compression metadata
type envelope struct {
	Data       []byte    `json:"data"`
	Compressed bool      `json:"compressed"`
	CachedAt   time.Time `json:"cached_at"`
}

// Codec serializes values for cache storage, compressing payloads above a
// size threshold with brotli. Decoding is transparent either way.
type Codec struct {
	threshold int
}

// NewCodec creates a codec. Payloads larger than threshold bytes are
// compressed; a non-positive threshold disables compression.
func NewCodec(threshold int) *Codec {
	return &Codec{threshold: threshold}
}

// Encode marshals v and wraps it in a cache envelope
func (c *Codec) Encode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache payload: %w", err)
	}

	env := envelope{Data: raw, CachedAt: time.Now()}

	if c.threshold > 0 && len(raw) > c.threshold {
		var buf bytes.Buffer
		w := brotli.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			w.Close()
			return nil, fmt.Errorf("failed to compress cache payload: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to finish compression: %w", err)
		}
		env.Data = buf.Bytes()
		env.Compressed = true
	}

	return json.Marshal(env)
}

// Decode unwraps a cache envelope into v
func (c *Codec) Decode(data []byte, v interface{}) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to unmarshal cache envelope: %w", err)
	}

	raw := env.Data
	if env.Compressed {
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(env.Data)))
		if err != nil {
			return fmt.Errorf("failed to decompress cache payload: %w", err)
		}
		raw = decompressed
	}

	return json.Unmarshal(raw, v)
}
