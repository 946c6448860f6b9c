package run

import (
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is the complete set of runs observed across all track+category
// leaderboards in one poll cycle. A snapshot is owned by the cycle that built
// it and becomes the "previous" snapshot once committed.
type Snapshot struct {
	// ID is a unique identifier for the snapshot (for logging and storage).
	ID string

	// TakenAt is when the snapshot was built.
	TakenAt time.Time

	// records preserves the order in which runs were observed; diff output
	// follows this order.
	records []*Record

	// byKey indexes records by identity key.
	byKey map[Key]*Record
}

// NewSnapshotID generates a fresh snapshot identifier.
func NewSnapshotID() string {
	return uuid.New().String()
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot(id string) *Snapshot {
	return &Snapshot{
		ID:      id,
		TakenAt: time.Now().UTC(),
		records: make([]*Record, 0),
		byKey:   make(map[Key]*Record),
	}
}

// Add appends a record to the snapshot. A record whose key is already present
// is ignored: the same run re-observed is one run, not two.
func (s *Snapshot) Add(r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	key := r.Key()
	if _, exists := s.byKey[key]; exists {
		return nil
	}

	s.records = append(s.records, r)
	s.byKey[key] = r
	return nil
}

// Records returns the runs in observation order.
func (s *Snapshot) Records() []*Record {
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Keys returns the set of identity keys in the snapshot.
func (s *Snapshot) Keys() map[Key]struct{} {
	keys := make(map[Key]struct{}, len(s.records))
	for k := range s.byKey {
		keys[k] = struct{}{}
	}
	return keys
}

// Get returns the record with the given key, or nil.
func (s *Snapshot) Get(key Key) *Record {
	return s.byKey[key]
}

// Contains reports whether the snapshot holds a record with the given key.
func (s *Snapshot) Contains(key Key) bool {
	_, ok := s.byKey[key]
	return ok
}

// Count returns the number of records.
func (s *Snapshot) Count() int {
	return len(s.records)
}

// IsEmpty reports whether the snapshot has no records.
func (s *Snapshot) IsEmpty() bool {
	return len(s.records) == 0
}

// WorldRecords returns the place-1 runs in observation order.
func (s *Snapshot) WorldRecords() []*Record {
	wrs := make([]*Record, 0)
	for _, r := range s.records {
		if r.IsWorldRecord() {
			wrs = append(wrs, r)
		}
	}
	return wrs
}

// ══════════════════════════════════════════════════════════════════════════════
// DIFF
// ══════════════════════════════════════════════════════════════════════════════

// Diff returns the runs in the snapshot whose identity keys are absent from
// previousKeys, i.e. the newly observed runs this cycle. Output follows the
// snapshot's observation order. Diffing the same snapshot against its own
// keys yields nothing, so an unchanged board produces no announcements.
func (s *Snapshot) Diff(previousKeys map[Key]struct{}) []*Record {
	newRuns := make([]*Record, 0)
	for _, r := range s.records {
		if _, seen := previousKeys[r.Key()]; !seen {
			newRuns = append(newRuns, r)
		}
	}
	return newRuns
}
