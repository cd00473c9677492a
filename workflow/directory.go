package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Directory is an in-memory table directory. It satisfies both TableProvider
// and TableStore and hands out copies only.
type Directory struct {
	mu     sync.RWMutex
	tables map[uint]TableRecord
}

// NewDirectory builds a directory from seed records. Ids must be positive and
// unique.
func NewDirectory(seed []TableRecord) (*Directory, error) {
	d := &Directory{tables: make(map[uint]TableRecord, len(seed))}
	for _, t := range seed {
		if t.ID == 0 {
			return nil, fmt.Errorf("table id must be positive")
		}
		if _, dup := d.tables[t.ID]; dup {
			return nil, fmt.Errorf("duplicate table id %d", t.ID)
		}
		if err := ValidateRecord(t); err != nil {
			return nil, err
		}
		d.tables[t.ID] = t.clone()
	}
	return d, nil
}

func (d *Directory) ListTables(ctx context.Context) ([]TableRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]TableRecord, 0, len(d.tables))
	for _, t := range d.tables {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *Directory) GetTable(ctx context.Context, tableID uint) (TableRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tables[tableID]
	if !ok {
		return TableRecord{}, ErrTableNotFound
	}
	return t.clone(), nil
}

func (d *Directory) CheckAvailability(ctx context.Context, tableID uint) (bool, error) {
	t, err := d.GetTable(ctx, tableID)
	if err != nil {
		return false, err
	}
	return t.Status == StatusFree, nil
}

// UpdateTable swaps in the dependent fields of next when the table is still in
// the expected status. Id and position are never changed.
func (d *Directory) UpdateTable(ctx context.Context, tableID uint, expected TableStatus, next TableRecord) (TableRecord, error) {
	if err := ValidateRecord(next); err != nil {
		return TableRecord{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cur, ok := d.tables[tableID]
	if !ok {
		return TableRecord{}, ErrTableNotFound
	}
	if cur.Status != expected {
		return TableRecord{}, ErrStaleStatus
	}
	cur.Status = next.Status
	cur.Occupancy = next.Occupancy
	cur.ReservedTime = next.clone().ReservedTime
	d.tables[tableID] = cur
	return cur.clone(), nil
}

// ValidateRecord enforces the status, guests and time invariant of a record.
func ValidateRecord(t TableRecord) error {
	if !t.Status.Valid() {
		return invalid("status", fmt.Sprintf("unknown status %q", t.Status))
	}
	if t.Status == StatusFree {
		if t.Occupancy != 0 || t.ReservedTime != nil {
			return invalid("status", "free table cannot carry guests or a time")
		}
		return nil
	}
	if t.Occupancy < 1 {
		return invalid("guests", "must be at least 1")
	}
	if t.ReservedTime == nil || *t.ReservedTime == "" {
		return invalid("time", "required for a reserved or occupied table")
	}
	return nil
}
