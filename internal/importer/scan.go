package importer

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// RecentWorkbooks lists .xlsx/.xls files under dir modified within
// maxAge, newest first. A zero maxAge disables the age cutoff.
func RecentWorkbooks(dir string, maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if !strings.HasSuffix(name, ".xlsx") && !strings.HasSuffix(name, ".xls") {
			continue
		}
		if strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if maxAge > 0 && info.ModTime().Before(cutoff) {
			continue
		}
		found = append(found, candidate{path: filepath.Join(dir, e.Name()), mod: info.ModTime()})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].mod.After(found[j].mod) })
	out := make([]string, 0, len(found))
	for _, c := range found {
		out = append(out, c.path)
	}
	return out, nil
}

// Scanner polls a drop directory for workbooks and hands new ones to a
// handler. Stop is cooperative: the flag is checked between directory
// entries so a long scan never outlives a shutdown request by much.
type Scanner struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	handler  func(path string) error
	log      *zap.Logger

	stopped atomic.Bool
	seen    map[string]time.Time
}

func NewScanner(dir string, maxAge, interval time.Duration, handler func(string) error, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scanner{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		handler:  handler,
		log:      log,
		seen:     map[string]time.Time{},
	}
}

// Stop requests termination of a running scanner.
func (s *Scanner) Stop() {
	s.stopped.Store(true)
}

// Run scans until the context is done or Stop is called.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		if s.stopped.Load() {
			return nil
		}
		if err := s.scanOnce(); err != nil {
			s.log.Warn("scan cycle failed", zap.String("dir", s.dir), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.interval):
		}
	}
}

// ScanOnce processes every new or modified workbook in the drop
// directory once. Exposed for the one-shot CLI path.
func (s *Scanner) ScanOnce() error {
	return s.scanOnce()
}

func (s *Scanner) scanOnce() error {
	paths, err := RecentWorkbooks(s.dir, s.maxAge)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if s.stopped.Load() {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if prev, ok := s.seen[path]; ok && !info.ModTime().After(prev) {
			continue
		}
		if err := s.handler(path); err != nil {
			s.log.Warn("workbook import failed", zap.String("path", path), zap.Error(err))
			continue
		}
		s.seen[path] = info.ModTime()
		s.log.Info("workbook imported", zap.String("path", path))
	}
	return nil
}
