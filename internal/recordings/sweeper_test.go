package recordings

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// writeWAV writes a minimal PCM WAV file (8kHz mono 16-bit) with the
// requested duration of silence.
func writeWAV(t *testing.T, path string, duration time.Duration) {
	t.Helper()

	const (
		sampleRate = 8000
		blockAlign = 2
	)
	dataSize := int(duration.Seconds() * sampleRate * blockAlign)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSweepMissingDirectory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nope"), 4*time.Hour, 5*time.Second, testLogger())

	processed, deleted := s.Sweep()
	if processed != 0 || deleted != 0 {
		t.Fatalf("Sweep() = (%d, %d), want (0, 0)", processed, deleted)
	}
}

func TestSweepPrunesOldAndCountsFresh(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.wav")
	writeWAV(t, old, 10*time.Second)
	stale := time.Now().Add(-5 * time.Hour)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, "fresh.wav")
	writeWAV(t, fresh, 10*time.Second)

	s := New(dir, 4*time.Hour, 5*time.Second, testLogger())
	processed, deleted := s.Sweep()

	if processed != 1 {
		t.Errorf("processed = %d, want 1 (old file must not count)", processed)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("directory not emptied, %d files remain", len(entries))
	}
}

func TestSweepShortClipDeletedNotCounted(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "short.wav"), time.Second)

	s := New(dir, 4*time.Hour, 5*time.Second, testLogger())
	processed, deleted := s.Sweep()

	if processed != 0 {
		t.Errorf("processed = %d, want 0 for a clip below the threshold", processed)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestSweepCorruptClipIsQualityFail(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "corrupt.wav"), []byte("not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeWAV(t, filepath.Join(dir, "good.wav"), 10*time.Second)

	s := New(dir, 4*time.Hour, 5*time.Second, testLogger())
	processed, deleted := s.Sweep()

	if processed != 1 {
		t.Errorf("processed = %d, want 1 (corrupt file fails quality, sweep continues)", processed)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
}

func TestSweepIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(dir, 4*time.Hour, 5*time.Second, testLogger())
	processed, deleted := s.Sweep()

	if processed != 0 || deleted != 0 {
		t.Fatalf("Sweep() = (%d, %d), want (0, 0)", processed, deleted)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("non-wav file was touched: %v", err)
	}
}

func TestSweepMatchesExtensionCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "UPPER.WAV"), 10*time.Second)

	s := New(dir, 4*time.Hour, 5*time.Second, testLogger())
	processed, deleted := s.Sweep()

	if processed != 1 || deleted != 1 {
		t.Fatalf("Sweep() = (%d, %d), want (1, 1)", processed, deleted)
	}
}
