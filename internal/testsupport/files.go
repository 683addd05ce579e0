package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

var fixtureHeader = []byte("RIFF\x00\x00\x00\x00WAVEfake")

// MediaPayload builds a fake media blob of exactly size bytes: a
// RIFF-style header followed by repeating filler so fixtures are
// recognizable in scratch listings. Sizes at or below the header
// length truncate it; a size <= 0 yields a single byte.
func MediaPayload(size int64) []byte {
	if size <= 0 {
		size = 1
	}
	if size <= int64(len(fixtureHeader)) {
		return append([]byte(nil), fixtureHeader[:size]...)
	}
	payload := make([]byte, size)
	copy(payload, fixtureHeader)
	filler := payload[len(fixtureHeader):]
	for i := range filler {
		filler[i] = byte('a' + i%26)
	}
	return payload
}

// WriteMediaFixture writes a fake media file of the requested size at
// path, creating parent directories as needed.
func WriteMediaFixture(t testing.TB, path string, size int64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, MediaPayload(size), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}
