// Package session holds the in-memory dataset collections behind each
// upload session.
package session

import (
	"fmt"
	"sync"
	"time"

	"datalens/domain/core"
	"datalens/domain/dataset"
	"datalens/internal/errors"
	"datalens/ports"
)

// Session is the ordered dataset collection of one user session together
// with the relationships derived from it. Relationships are recomputed on
// every change to the collection.
type Session struct {
	mu            sync.RWMutex
	id            core.SessionID
	datasets      []*dataset.Dataset
	relationships []dataset.Relationship
	detector      ports.RelationshipDetector
	createdAt     time.Time
	updatedAt     time.Time
}

// New creates an empty session. A nil detector yields no relationships.
func New(id core.SessionID, detector ports.RelationshipDetector) *Session {
	now := time.Now().UTC()
	return &Session{id: id, detector: detector, createdAt: now, updatedAt: now}
}

// ID returns the session identifier
func (s *Session) ID() core.SessionID {
	return s.id
}

// Add appends ds, or replaces in place a dataset with the same name and
// content fingerprint. It reports whether a replacement happened.
func (s *Session) Add(ds *dataset.Dataset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i, existing := range s.datasets {
		if existing.Name == ds.Name && existing.Fingerprint.Equals(ds.Fingerprint) {
			s.datasets[i] = ds
			replaced = true
			break
		}
	}
	if !replaced {
		s.datasets = append(s.datasets, ds)
	}
	s.changed()
	return replaced
}

// Remove deletes a dataset by ID
func (s *Session) Remove(id core.DatasetID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, ds := range s.datasets {
		if ds.ID == id {
			s.datasets = append(s.datasets[:i:i], s.datasets[i+1:]...)
			s.changed()
			return nil
		}
	}
	return datasetNotFound(id)
}

// Clear drops every dataset
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets = nil
	s.changed()
}

// Dataset looks up one dataset by ID
func (s *Session) Dataset(id core.DatasetID) (*dataset.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ds := range s.datasets {
		if ds.ID == id {
			return ds, nil
		}
	}
	return nil, datasetNotFound(id)
}

// Datasets returns the collection in upload order
func (s *Session) Datasets() []*dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyDatasets()
}

// Relationships returns the cached relationships
func (s *Session) Relationships() []dataset.Relationship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyRelationships()
}

func (s *Session) copyDatasets() []*dataset.Dataset {
	out := make([]*dataset.Dataset, len(s.datasets))
	copy(out, s.datasets)
	return out
}

func (s *Session) copyRelationships() []dataset.Relationship {
	out := make([]dataset.Relationship, len(s.relationships))
	copy(out, s.relationships)
	return out
}

// Len returns the number of datasets
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// UpdatedAt is the time of the last change or creation
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// changed must be called with the write lock held
func (s *Session) changed() {
	s.updatedAt = time.Now().UTC()
	if s.detector == nil || len(s.datasets) < 2 {
		s.relationships = nil
		return
	}
	s.relationships = s.detector.DiscoverRelationships(s.datasets)
}

func datasetNotFound(id core.DatasetID) error {
	return errors.NotFound("dataset", fmt.Errorf("%w with id %s", core.ErrDatasetNotFound, id))
}
