// Package memory is an in-process export target used when no spreadsheet is
// configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"cashflow/internal/core"
	"cashflow/internal/sheets"
)

type Sheet struct {
	mu   sync.Mutex
	rows []core.Movement
}

var _ sheets.Target = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

// AppendMovement stores the entry, replacing the row already holding its ID,
// and returns the row reference. References count sheet rows from 1 with the
// header in row 1, like the A1 ranges of the Google target, so the first
// entry lives at "mem:2".
func (s *Sheet) AppendMovement(_ context.Context, m core.Movement) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == m.ID {
			s.rows[i] = m
			return rowRef(i), nil
		}
	}
	s.rows = append(s.rows, m)
	return rowRef(len(s.rows) - 1), nil
}

func rowRef(index int) string {
	return fmt.Sprintf("mem:%d", index+2)
}

func (s *Sheet) DeleteMovement(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.rows {
		if m.ID == id {
			s.rows = append(s.rows[:i:i], s.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Sheet) ReplaceMovements(_ context.Context, ms []core.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]core.Movement(nil), ms...)
	return nil
}

// Rows returns a copy of the exported entries in sheet order.
func (s *Sheet) Rows() []core.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Movement(nil), s.rows...)
}
