// Package procscan answers whether the monitored application is
// currently running by enumerating OS processes.
package procscan

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Probe checks for a target process by executable name and command-line
// keywords. A process matches when its name equals one of RuntimeNames
// (case-insensitive) and its command line contains at least one of
// Keywords (case-insensitive substring, not a pattern).
type Probe struct {
	runtimeNames []string
	keywords     []string
	selfPID      int32
	logger       *log.Logger
}

// New returns a Probe that excludes the calling process from matching.
func New(runtimeNames, keywords []string, logger *log.Logger) *Probe {
	return &Probe{
		runtimeNames: runtimeNames,
		keywords:     keywords,
		selfPID:      int32(os.Getpid()),
		logger:       logger,
	}
}

// Running reports whether the target process was found. Processes whose
// name or command line cannot be read (exited, access denied) are
// skipped; an enumeration-level failure is logged and reported as not
// running rather than propagated. A false negative is preferable to
// taking the monitor down.
func (p *Probe) Running(ctx context.Context) bool {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		p.logger.Printf("ERROR enumerating processes: %v", err)
		return false
	}

	checked := 0
	for _, proc := range procs {
		if proc.Pid == p.selfPID {
			continue
		}

		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cmdline, err := proc.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}

		checked++

		if !matchesRuntime(name, p.runtimeNames) {
			continue
		}
		if keyword, ok := matchKeyword(cmdline, p.keywords); ok {
			p.logger.Printf("INFO found target process: pid %d keyword %q cmd %s", proc.Pid, keyword, truncate(cmdline, 100))
			return true
		}
	}

	p.logger.Printf("INFO target process not found, checked %d processes", checked)
	return false
}

func matchesRuntime(name string, runtimeNames []string) bool {
	for _, candidate := range runtimeNames {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}

func matchKeyword(cmdline string, keywords []string) (string, bool) {
	lower := strings.ToLower(cmdline)
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return keyword, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
