// Package memory is an in-process BalanceWriter used by tests and by
// the memory backend where no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows map[core.YearMonth]core.Saving
}

var _ ports.BalanceWriter = (*Writer)(nil)

func NewWriter() *Writer {
	return &Writer{rows: make(map[core.YearMonth]core.Saving)}
}

func (w *Writer) WriteBalance(_ context.Context, s core.Saving) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows[s.Key] = s
	return fmt.Sprintf("memory!%s", s.Key), nil
}

// Balance returns the last written balance for a month.
func (w *Writer) Balance(key core.YearMonth) (core.Saving, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.rows[key]
	return s, ok
}

// Len reports how many months have been written.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}
