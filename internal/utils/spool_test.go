package utils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSpoolStream(t *testing.T) {
	content := []byte("hello airlift")

	spool, err := SpoolStream(bytes.NewReader(content), 1024)
	if err != nil {
		t.Fatalf("SpoolStream failed: %v", err)
	}
	defer spool.Close()

	if spool.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), spool.Size)
	}

	sum := sha256.Sum256(content)
	if want := hex.EncodeToString(sum[:]); spool.Hash != want {
		t.Errorf("expected hash %s, got %s", want, spool.Hash)
	}

	reader, err := spool.Reader()
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	got, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("reading spool failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("spool content mismatch: got %q, want %q", got, content)
	}
}

func TestSpoolStreamRewindable(t *testing.T) {
	spool, err := SpoolStream(strings.NewReader("rewind me"), 0)
	if err != nil {
		t.Fatalf("SpoolStream failed: %v", err)
	}
	defer spool.Close()

	for i := 0; i < 2; i++ {
		reader, err := spool.Reader()
		if err != nil {
			t.Fatalf("Reader call %d failed: %v", i, err)
		}
		got, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if string(got) != "rewind me" {
			t.Errorf("read %d: got %q", i, got)
		}
	}
}

func TestSpoolStreamTooLarge(t *testing.T) {
	_, err := SpoolStream(bytes.NewReader(make([]byte, 100)), 99)
	if !errors.Is(err, ErrSpoolTooLarge) {
		t.Errorf("expected ErrSpoolTooLarge, got %v", err)
	}
}

func TestSpoolStreamExactlyAtLimit(t *testing.T) {
	spool, err := SpoolStream(bytes.NewReader(make([]byte, 100)), 100)
	if err != nil {
		t.Fatalf("expected at-limit stream to succeed, got %v", err)
	}
	defer spool.Close()

	if spool.Size != 100 {
		t.Errorf("expected size 100, got %d", spool.Size)
	}
}

func TestSpoolStreamEmptyStream(t *testing.T) {
	spool, err := SpoolStream(bytes.NewReader(nil), 1024)
	if err != nil {
		t.Fatalf("SpoolStream failed on empty stream: %v", err)
	}
	defer spool.Close()

	if spool.Size != 0 {
		t.Errorf("expected size 0, got %d", spool.Size)
	}

	// sha256 of the empty string
	if spool.Hash != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected empty hash %s", spool.Hash)
	}
}
