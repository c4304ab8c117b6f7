// Package memindex provides an in-memory SimilarityIndex with the same
// semantics as the bbolt-backed one. Nothing survives the process; it
// backs tests and ephemeral runs.
package memindex

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"photomatch/internal/domain"
	"photomatch/internal/vecmath"
)

type MemoryIndex struct {
	mu       sync.RWMutex
	records  map[string]domain.ImageRecord
	byHandle map[string][]string
	dim      int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		records:  make(map[string]domain.ImageRecord),
		byHandle: make(map[string][]string),
	}
}

func (s *MemoryIndex) Insert(rec domain.ImageRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim != 0 && len(rec.Embedding) != s.dim {
		return "", fmt.Errorf("%w: index stores %d-dim embeddings, got %d",
			domain.ErrDimensionMismatch, s.dim, len(rec.Embedding))
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	s.records[rec.ID] = rec
	s.byHandle[rec.AccountHandle] = append(s.byHandle[rec.AccountHandle], rec.ID)
	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	}
	return rec.ID, nil
}

func (s *MemoryIndex) GetAll() ([]domain.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.ImageRecord, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, rec)
	}
	return all, nil
}

func (s *MemoryIndex) QueryTopN(query []float32, n int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return []domain.SearchResult{}, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index stores %d",
			domain.ErrDimensionMismatch, len(query), s.dim)
	}

	results := make([]domain.SearchResult, 0, len(s.records))
	for _, rec := range s.records {
		results = append(results, domain.SearchResult{
			Record: rec,
			Score:  vecmath.CosineSimilarity(query, rec.Embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if n >= 0 && n < len(results) {
		results = results[:n]
	}
	return results, nil
}

func (s *MemoryIndex) GetByAccountHandle(handle string) ([]domain.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byHandle[handle]
	recs := make([]domain.ImageRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, s.records[id])
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs, nil
}

func (s *MemoryIndex) UniqueAccounts() ([]domain.AccountCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.AccountCount, 0, len(s.byHandle))
	for handle, ids := range s.byHandle {
		if len(ids) == 0 {
			continue
		}
		accounts = append(accounts, domain.AccountCount{
			Name:   s.records[ids[0]].AccountName,
			Handle: handle,
			Count:  len(ids),
		})
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Count != accounts[j].Count {
			return accounts[i].Count > accounts[j].Count
		}
		return accounts[i].Handle < accounts[j].Handle
	})
	return accounts, nil
}

func (s *MemoryIndex) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryIndex) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	delete(s.records, id)

	ids := s.byHandle[rec.AccountHandle]
	for i, v := range ids {
		if v == id {
			s.byHandle[rec.AccountHandle] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byHandle[rec.AccountHandle]) == 0 {
		delete(s.byHandle, rec.AccountHandle)
	}
	if len(s.records) == 0 {
		s.dim = 0
	}
	return nil
}

func (s *MemoryIndex) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]domain.ImageRecord)
	s.byHandle = make(map[string][]string)
	s.dim = 0
	return nil
}

func (s *MemoryIndex) Close() error {
	return nil
}
