// Package audit persists the append-only record of prediction requests as
// delimited rows in a single CSV file.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

var header = []string{"audit_id", "user_id", "filename", "saved_path", "processing_time_seconds"}

// Log appends audit rows to a CSV file, writing the header row on first use.
// Appends are serialized in-process with a mutex; concurrent writers from
// other processes can still interleave rows.
type Log struct {
	mu   sync.Mutex
	path string
}

func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one row. Rows are never mutated or deleted afterwards.
func (l *Log) Append(rec domain.AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, statErr := os.Stat(l.path)
	writeHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write audit header: %w", err)
		}
	}
	if err := w.Write([]string{
		rec.AuditID,
		rec.UserID,
		rec.Filename,
		rec.SavedPath,
		strconv.FormatFloat(rec.ProcessingTimeSeconds, 'f', 3, 64),
	}); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush audit row: %w", err)
	}
	return nil
}

// Tail returns the last limit records in file order. The whole file is read
// on every call; there is no index.
func (l *Log) Tail(limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	records := make([]domain.AuditRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 && row[0] == header[0] {
			continue
		}
		secs, _ := strconv.ParseFloat(row[4], 64)
		records = append(records, domain.AuditRecord{
			AuditID:               row[0],
			UserID:                row[1],
			Filename:              row[2],
			SavedPath:             row[3],
			ProcessingTimeSeconds: secs,
		})
	}

	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
