package record

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps match records in memory. Used when no database is
// configured, and by tests.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byUUID map[string]*MatchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, byUUID: make(map[string]*MatchRecord)}
}

func (s *MemoryStore) Insert(_ context.Context, rec *MatchRecord) (int64, error) {
	if rec == nil {
		return 0, errNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byUUID[rec.MatchUUID]; exists {
		return 0, ErrDuplicateMatch
	}
	stored := cloneRecord(rec)
	stored.ID = s.nextID
	s.nextID++
	s.byUUID[stored.MatchUUID] = stored
	return stored.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, matchUUID string) (*MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byUUID[matchUUID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]*MatchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*MatchRecord, 0, len(s.byUUID))
	for _, rec := range s.byUUID {
		recs = append(recs, cloneRecord(rec))
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].EndedAt.Equal(recs[j].EndedAt) {
			return recs[i].ID > recs[j].ID
		}
		return recs[i].EndedAt.After(recs[j].EndedAt)
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneRecord(rec *MatchRecord) *MatchRecord {
	out := *rec
	out.MovesUCI = append([]string(nil), rec.MovesUCI...)
	out.MovesSAN = append([]string(nil), rec.MovesSAN...)
	return &out
}
