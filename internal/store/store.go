// Package store holds the dataset currently served by the process.
package store

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
)

// Store publishes a complete dataset with a single pointer swap. Readers see
// either the previous dataset or the new one, never a partial state.
type Store struct {
	current atomic.Pointer[analysis.Dataset]
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{now: time.Now}
}

// Publish stamps ds with a fresh id and creation time and makes it current.
// The previous dataset, if any, is returned.
func (s *Store) Publish(ds *analysis.Dataset) *analysis.Dataset {
	ds.ID = uuid.NewString()
	ds.CreatedAt = s.now().UTC()
	return s.current.Swap(ds)
}

// Current returns the published dataset or a MissingDatasetError before the
// first successful upload.
func (s *Store) Current() (*analysis.Dataset, error) {
	ds := s.current.Load()
	if ds == nil {
		return nil, &analysis.MissingDatasetError{}
	}
	return ds, nil
}
