package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrSpoolTooLarge is returned when the incoming stream exceeds the allowed size.
var ErrSpoolTooLarge = errors.New("stream exceeds maximum allowed size")

// Spool holds an uploaded stream in a temp file together with its content
// digest, so the digest can be inspected (for dedup) before the bytes are
// handed to a storage backend.
type Spool struct {
	file *os.File
	Size int64
	Hash string // sha256 hex digest of the spooled content
}

// SpoolStream copies r into a temp file, hashing as it goes. If maxBytes > 0
// and the stream exceeds it, copying stops and ErrSpoolTooLarge is returned.
// The caller must Close the returned spool.
func SpoolStream(r io.Reader, maxBytes int64) (*Spool, error) {
	tmp, err := os.CreateTemp("", "airlift-upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create spool file: %w", err)
	}

	hasher := sha256.New()
	src := r
	if maxBytes > 0 {
		// Read one extra byte so an exactly-at-limit stream is distinguishable
		// from an over-limit one.
		src = io.LimitReader(r, maxBytes+1)
	}

	written, err := io.Copy(io.MultiWriter(tmp, hasher), src)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to spool stream: %w", err)
	}

	if maxBytes > 0 && written > maxBytes {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, ErrSpoolTooLarge
	}

	return &Spool{
		file: tmp,
		Size: written,
		Hash: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Reader rewinds the spool and returns a reader over the full content.
func (s *Spool) Reader() (io.Reader, error) {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind spool: %w", err)
	}
	return s.file, nil
}

// Close removes the underlying temp file.
func (s *Spool) Close() error {
	name := s.file.Name()
	s.file.Close()
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
