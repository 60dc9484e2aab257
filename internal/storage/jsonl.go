package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"nitroScope/internal/model"
)

// JsonlStorage appends valuation reports to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutReport appends report as one JSON line.
func (s *JsonlStorage) PutReport(ctx context.Context, report model.ValuationReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

const defaultListLimit = 20

// ListReports returns up to limit reports for user from the file, newest
// first. User addresses are compared case-insensitively.
func (s *JsonlStorage) ListReports(ctx context.Context, user string, limit int) ([]model.ValuationReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == "" {
		return nil, fmt.Errorf("user address required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	s.mu.Lock()
	all, err := ReadReports(s.path)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []model.ValuationReport
	for _, report := range all {
		if strings.EqualFold(report.User, user) {
			out = append(out, report)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ReadReports loads every report in a JSONL file written by PutReport.
func ReadReports(path string) ([]model.ValuationReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reports: %w", err)
	}
	defer file.Close()

	var out []model.ValuationReport
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var report model.ValuationReport
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}
		out = append(out, report)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	return out, nil
}
