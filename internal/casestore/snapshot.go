package casestore

import (
	"time"

	"github.com/abah/PERMASALAHAN-TANAH/internal/core/domain"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/datasource"
	"github.com/abah/PERMASALAHAN-TANAH/internal/engine"
)

// Snapshot is an immutable view of the record set at one point in time.
type Snapshot struct {
	records    []domain.Record
	index      map[string]int
	version    uint64
	loadedAt   time.Time
	source     string
	skipped    int
	primaryErr error
}

func newSnapshot(loaded datasource.Loaded, version uint64, loadedAt time.Time) *Snapshot {
	owned := append([]domain.Record(nil), loaded.Records...)
	index := make(map[string]int, len(owned))

	for i, r := range owned {
		index[r.ID] = i
	}

	return &Snapshot{
		records:    owned,
		index:      index,
		version:    version,
		loadedAt:   loadedAt,
		source:     loaded.Source,
		skipped:    loaded.Skipped,
		primaryErr: loaded.PrimaryErr,
	}
}

// Records returns a copy of the records in load order.
func (s *Snapshot) Records() []domain.Record {
	return append([]domain.Record(nil), s.records...)
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Get returns the record with the given id.
func (s *Snapshot) Get(id string) (domain.Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Record{}, false
	}

	return s.records[i], true
}

// Has reports whether id is present.
func (s *Snapshot) Has(id string) bool {
	_, ok := s.index[id]

	return ok
}

// Apply runs the filter and aggregation engine over the snapshot.
func (s *Snapshot) Apply(c domain.FilterCriteria) engine.Result {
	return engine.Apply(s.records, c)
}

// Options returns the filter option lists for the snapshot.
func (s *Snapshot) Options(province string) engine.FilterOptions {
	return engine.Options(s.records, province)
}

// Version increases by one with every load.
func (s *Snapshot) Version() uint64 { return s.version }

// LoadedAt is when the snapshot was read.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Source names the backend that served the snapshot.
func (s *Snapshot) Source() string { return s.source }

// Skipped counts documents dropped while loading.
func (s *Snapshot) Skipped() int { return s.skipped }

// Fallback reports whether the fallback source served the snapshot.
func (s *Snapshot) Fallback() bool { return s.primaryErr != nil }

// primaryDown reports a fallback snapshot taken while the primary could not
// be read. An empty primary is not down.
func (s *Snapshot) primaryDown() bool {
	return s.primaryErr != nil && !errors.Is(s.primaryErr, errors.ErrEmptySource)
}
