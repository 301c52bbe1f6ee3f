package repository

import (
	"context"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/google/uuid"
)

type logPartition struct {
	mu      sync.RWMutex
	records []model.LogRecord
	lastSeq int64
	dropped bool
}

// MemoryLogRepository keeps one ordered partition per project. Appends in
// timestamp order extend the slice in place; deletions and late inserts
// replace it, so a slice header taken under the read lock stays a stable
// snapshot.
type MemoryLogRepository struct {
	mu         sync.RWMutex
	partitions map[uuid.UUID]*logPartition
	pos        atomic.Int64
	exists     func(uuid.UUID) bool
}

func NewMemoryLogRepository() *MemoryLogRepository {
	return &MemoryLogRepository{partitions: make(map[uuid.UUID]*logPartition)}
}

func (r *MemoryLogRepository) partition(projectID uuid.UUID) *logPartition {
	r.mu.RLock()
	p, ok := r.partitions[projectID]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok = r.partitions[projectID]; !ok {
		p = &logPartition{}
		r.partitions[projectID] = p
	}
	return p
}

func (r *MemoryLogRepository) Append(ctx context.Context, record *model.LogRecord) (model.RecordID, error) {
	if r.exists != nil && !r.exists(record.ProjectID) {
		return model.RecordID{}, model.ErrProjectNotFound
	}
	p := r.partition(record.ProjectID)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dropped || (r.exists != nil && !r.exists(record.ProjectID)) {
		return model.RecordID{}, model.ErrProjectNotFound
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	p.lastSeq++
	record.Seq = p.lastSeq
	record.Pos = r.pos.Add(1)
	stored := record.Clone()

	n := len(p.records)
	if n == 0 || !stored.Before(p.records[n-1]) {
		p.records = append(p.records, stored)
	} else {
		i, _ := slices.BinarySearchFunc(p.records, stored, compareRecords)
		next := make([]model.LogRecord, 0, n+1)
		next = append(next, p.records[:i]...)
		next = append(next, stored)
		next = append(next, p.records[i:]...)
		p.records = next
	}

	return model.RecordID{ID: record.ID, Seq: record.Seq}, nil
}

func (r *MemoryLogRepository) Query(ctx context.Context, filter model.LogFilter) (iter.Seq[model.LogRecord], error) {
	var snapshots [][]model.LogRecord

	r.mu.RLock()
	if filter.ProjectID != nil {
		if p, ok := r.partitions[*filter.ProjectID]; ok {
			snapshots = append(snapshots, p.snapshot())
		}
	} else {
		for _, p := range r.partitions {
			snapshots = append(snapshots, p.snapshot())
		}
	}
	r.mu.RUnlock()

	return mergeRecords(snapshots, filter), nil
}

func (r *MemoryLogRepository) DeleteWhere(ctx context.Context, filter model.DeleteFilter) (int, error) {
	var targets []*logPartition

	r.mu.RLock()
	if filter.ProjectID != nil {
		if p, ok := r.partitions[*filter.ProjectID]; ok {
			targets = append(targets, p)
		}
	} else {
		for _, p := range r.partitions {
			targets = append(targets, p)
		}
	}
	r.mu.RUnlock()

	deleted := 0
	for _, p := range targets {
		p.mu.Lock()
		kept := make([]model.LogRecord, 0, len(p.records))
		for _, rec := range p.records {
			if !filter.Matches(rec) {
				kept = append(kept, rec)
			}
		}
		deleted += len(p.records) - len(kept)
		if len(kept) != len(p.records) {
			p.records = kept
		}
		p.mu.Unlock()
	}
	return deleted, nil
}

// dropProject removes the partition of a project and reports how many records it held.
func (r *MemoryLogRepository) dropProject(projectID uuid.UUID) int {
	r.mu.Lock()
	p, ok := r.partitions[projectID]
	delete(r.partitions, projectID)
	r.mu.Unlock()
	if !ok {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.records)
	p.records = nil
	p.dropped = true
	return n
}

func (r *MemoryLogRepository) Close() error {
	return nil
}

func (p *logPartition) snapshot() []model.LogRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.records[:len(p.records):len(p.records)]
}

func compareRecords(a, b model.LogRecord) int {
	if a.Before(b) {
		return -1
	}
	if b.Before(a) {
		return 1
	}
	return 0
}

// mergeRecords lazily merges per-project snapshots, each already ordered,
// into one ordered sequence. Every iteration starts from the beginning.
func mergeRecords(snapshots [][]model.LogRecord, filter model.LogFilter) iter.Seq[model.LogRecord] {
	return func(yield func(model.LogRecord) bool) {
		cursors := make([]int, len(snapshots))
		for {
			best := -1
			for i, snap := range snapshots {
				for cursors[i] < len(snap) && !filter.Matches(snap[cursors[i]]) {
					cursors[i]++
				}
				if cursors[i] == len(snap) {
					continue
				}
				if best == -1 || snap[cursors[i]].Before(snapshots[best][cursors[best]]) {
					best = i
				}
			}
			if best == -1 {
				return
			}
			rec := snapshots[best][cursors[best]]
			cursors[best]++
			if !yield(rec.Clone()) {
				return
			}
		}
	}
}
