package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cddasrc/internal/logging"
)

const (
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// Filter selects log lines. Empty fields match everything. Lines that are not
// JSON objects only pass an empty filter.
type Filter struct {
	// MinLevel is one of debug, info, warn, error.
	MinLevel string
	Session  string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "warning": 2, "error": 3}

func (f Filter) empty() bool { return f.MinLevel == "" && f.Session == "" }

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	var rec struct {
		Level   string `json:"level"`
		Session string `json:"session_id"`
	}
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return false
	}
	if f.Session != "" && rec.Session != f.Session {
		return false
	}
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[strings.ToLower(rec.Level)] < want {
			return false
		}
	}
	return true
}

// TailOptions control Tail.
type TailOptions struct {
	// Limit is the number of matching lines to return; 0 returns none.
	Limit  int
	Filter Filter
}

// TailResult holds the selected lines and the file size they were read up to.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail returns the last opts.Limit matching lines of path. A missing file is
// empty.
func Tail(path string, opts TailOptions) (TailResult, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return TailResult{}, err
	}
	defer file.Close()

	var ring []string
	if opts.Limit > 0 {
		ring = make([]string, 0, opts.Limit)
	}
	offset, err := scan(file, func(line string) {
		if opts.Limit <= 0 || !opts.Filter.Match(line) {
			return
		}
		if len(ring) == opts.Limit {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	})
	if err != nil {
		return TailResult{}, err
	}
	return TailResult{Lines: ring, Offset: offset}, nil
}

// Follow emits matching lines appended to path after offset until ctx is
// done. A truncated file is read again from the start.
func Follow(ctx context.Context, path string, offset int64, filter Filter, emit func(string)) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		next, err := readFrom(path, offset, filter, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, filter Filter, emit func(string)) (int64, error) {
	file, err := open(path)
	if err != nil || file == nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	read, err := scan(file, func(line string) {
		if filter.Match(line) {
			emit(line)
		}
	})
	if err != nil {
		return offset, err
	}
	return offset + read, nil
}

// scan feeds each complete line to fn and returns the bytes consumed. A
// trailing partial line is left for the next read.
func scan(r io.Reader, fn func(string)) (int64, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := br.ReadString('\n')
		if err == io.EOF {
			return consumed, nil
		}
		if err != nil {
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			continue
		}
		fn(strings.TrimRight(line, "\r\n"))
	}
}

func open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", path)
	}
	return file, nil
}

// DefaultPath returns the log file inside dir.
func DefaultPath(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, logging.LogFileName)
}
