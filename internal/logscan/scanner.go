// Package logscan finds error lines that appeared in the application
// log after the monitor session started.
package logscan

import (
	"bufio"
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"
)

// timeLayout matches SDRTrunk's log line prefix, e.g. "20250629 224900".
// The fractional seconds that follow are dropped before parsing.
const timeLayout = "20060102 150405"

const maxLineSize = 1 << 20

// Scanner classifies log lines by timestamp and keyword content. The
// whole file is re-read on every call; no cursor is kept between cycles,
// which keeps the scanner stateless at the cost of some I/O.
type Scanner struct {
	errorKeywords  []string
	ignoreKeywords []string
	logger         *log.Logger
}

// New returns a Scanner for the given keyword lists. Matching is
// case-insensitive plain substring on both lists.
func New(errorKeywords, ignoreKeywords []string, logger *log.Logger) *Scanner {
	return &Scanner{
		errorKeywords:  errorKeywords,
		ignoreKeywords: ignoreKeywords,
		logger:         logger,
	}
}

// NewErrors returns the trimmed log lines that carry a timestamp at or
// after since and contain an error keyword without an ignore keyword.
// A missing file is an empty result, not an error. Lines whose
// timestamp cannot be parsed are never flagged: without a timestamp
// there is no way to tell new errors from historical ones.
func (s *Scanner) NewErrors(path string, since time.Time) []string {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("WARN log file not found: %s", path)
		return nil
	}
	if err != nil {
		s.logger.Printf("ERROR opening log file %s: %v", path, err)
		return nil
	}
	defer f.Close()

	var matches []string
	linesChecked := 0
	linesAfterStart := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		linesChecked++

		ts, ok := parseLineTime(line)
		if !ok || ts.Before(since) {
			continue
		}
		linesAfterStart++

		lower := strings.ToLower(line)
		if containsAny(lower, s.ignoreKeywords) {
			continue
		}
		if keyword, ok := firstMatch(lower, s.errorKeywords); ok {
			s.logger.Printf("INFO found error keyword %q in line: %s", keyword, strings.TrimSpace(line))
			matches = append(matches, strings.TrimSpace(line))
		}
	}
	if err := sc.Err(); err != nil {
		s.logger.Printf("ERROR reading log file %s: %v", path, err)
	}

	s.logger.Printf("INFO log check complete: %d lines, %d after session start, %d errors", linesChecked, linesAfterStart, len(matches))
	return matches
}

// parseLineTime extracts the timestamp from the first two
// whitespace-separated tokens of a log line.
func parseLineTime(line string) (time.Time, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return time.Time{}, false
	}

	timePart := fields[1]
	if idx := strings.IndexByte(timePart, '.'); idx >= 0 {
		timePart = timePart[:idx]
	}

	ts, err := time.ParseInLocation(timeLayout, fields[0]+" "+timePart, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func containsAny(lowerLine string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowerLine, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

func firstMatch(lowerLine string, keywords []string) (string, bool) {
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowerLine, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}
