package memory

import (
	"context"
	"sync"

	"github.com/jack23912/webscrapbook/internal/entity"
	"github.com/jack23912/webscrapbook/internal/repository"
)

// RecordStoreImpl keeps capture records and failed resources in process. It
// implements both repository.CaptureRecordRepository and
// repository.FailedResourceRepository.
type RecordStoreImpl struct {
	mu       sync.RWMutex
	nextID   int64
	records  map[string]*entity.CaptureRecord
	failures map[string][]*entity.FailedResource
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStoreImpl {
	return &RecordStoreImpl{
		records:  make(map[string]*entity.CaptureRecord),
		failures: make(map[string][]*entity.FailedResource),
	}
}

func (s *RecordStoreImpl) Save(_ context.Context, record *entity.CaptureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	if existing, ok := s.records[record.SessionID]; ok {
		stored.ID = existing.ID
	} else {
		s.nextID++
		stored.ID = s.nextID
	}
	s.records[record.SessionID] = &stored
	record.ID = stored.ID
	return nil
}

func (s *RecordStoreImpl) FindBySession(_ context.Context, sessionID string) (*entity.CaptureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *record
	return &out, nil
}

func (s *RecordStoreImpl) SaveOrUpdate(_ context.Context, failed *entity.FailedResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.failures[failed.SessionID] {
		if existing.URL == failed.URL && existing.Kind == failed.Kind {
			existing.FailureReason = failed.FailureReason
			existing.Fallback = failed.Fallback
			existing.LastAttemptAt = failed.LastAttemptAt
			existing.Attempts++
			return nil
		}
	}
	s.nextID++
	stored := *failed
	stored.ID = s.nextID
	stored.Attempts = 1
	s.failures[failed.SessionID] = append(s.failures[failed.SessionID], &stored)
	return nil
}

// ListBySession lists the failures of a session.
func (s *RecordStoreImpl) ListBySession(_ context.Context, sessionID string) ([]*entity.FailedResource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.FailedResource, 0, len(s.failures[sessionID]))
	for _, f := range s.failures[sessionID] {
		c := *f
		out = append(out, &c)
	}
	return out, nil
}
