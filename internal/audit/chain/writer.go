// Package chain writes the activity stream as a hash-chained JSONL file so
// tampering with past entries is detectable.
package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/audit"
)

type Writer struct {
	mu   sync.Mutex
	f    *os.File
	prev []byte // previous record hash
}

func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, prev: make([]byte, 32)}, nil
}

func (w *Writer) Close() error { return w.f.Close() }

type record struct {
	audit.Entry
	Prev string `json:"prev"`
	Hash string `json:"hash"`
}

// Record implements audit.Recorder. Each line carries the hash of the
// previous line, anchoring the chain at 32 zero bytes.
func (w *Writer) Record(_ context.Context, e audit.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec := record{Entry: e, Prev: hex.EncodeToString(w.prev)}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	h := sha256.Sum256(append(w.prev, b...))
	rec.Hash = hex.EncodeToString(h[:])
	if b, err = json.Marshal(rec); err != nil {
		return err
	}
	if _, err := w.f.Write(append(b, '\n')); err != nil {
		return err
	}
	copy(w.prev, h[:])
	return nil
}
