// Package recordings prunes and quality-gates the audio clips produced
// by the monitored application.
package recordings

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// Sweeper empties the recordings directory on every pass. Files older
// than MaxAge are pruned without evaluation; the rest are decoded and
// counted as processed when the clip duration reaches QualityThreshold.
// Every file present at sweep start is deleted regardless of outcome:
// clips are processed and discarded, never retained.
type Sweeper struct {
	dir              string
	maxAge           time.Duration
	qualityThreshold time.Duration
	logger           *log.Logger
	now              func() time.Time
}

// New returns a Sweeper over dir.
func New(dir string, maxAge, qualityThreshold time.Duration, logger *log.Logger) *Sweeper {
	return &Sweeper{
		dir:              dir,
		maxAge:           maxAge,
		qualityThreshold: qualityThreshold,
		logger:           logger,
		now:              time.Now,
	}
}

// Sweep evaluates and deletes every .wav file in the directory. It
// returns the number of quality-pass clips and the total number of
// files removed. A missing directory is an empty sweep. A single
// unreadable file counts as a quality fail and does not abort the pass.
func (s *Sweeper) Sweep() (processed, deleted int) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("WARN recordings directory not found: %s", s.dir)
		return 0, 0
	}
	if err != nil {
		s.logger.Printf("ERROR reading recordings directory %s: %v", s.dir, err)
		return 0, 0
	}

	now := s.now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		info, err := entry.Info()
		if err == nil && now.Sub(info.ModTime()) > s.maxAge {
			s.logger.Printf("WARN clip too old, deleting: %s", entry.Name())
			if s.remove(path) {
				deleted++
			}
			continue
		}

		duration, err := clipDuration(path)
		switch {
		case err != nil:
			s.logger.Printf("ERROR checking clip %s: %v", entry.Name(), err)
		case duration >= s.qualityThreshold:
			s.logger.Printf("INFO clip %s quality ok: %.2fs", entry.Name(), duration.Seconds())
			processed++
		default:
			s.logger.Printf("WARN clip %s too short: %.2fs", entry.Name(), duration.Seconds())
		}

		if s.remove(path) {
			deleted++
			s.logger.Printf("INFO processed and deleted: %s", entry.Name())
		}
	}

	return processed, deleted
}

func (s *Sweeper) remove(path string) bool {
	if err := os.Remove(path); err != nil {
		s.logger.Printf("ERROR deleting clip %s: %v", path, err)
		return false
	}
	return true
}

// clipDuration decodes the WAV header and reports playable length.
func clipDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open clip: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("not a valid wav file: %s", filepath.Base(path))
	}

	duration, err := decoder.Duration()
	if err != nil {
		return 0, fmt.Errorf("decode duration: %w", err)
	}
	return duration, nil
}
