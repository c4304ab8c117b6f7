package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"photomatch/internal/domain"
	"photomatch/internal/vecmath"
)

var bucketImages = []byte("images")

// BoltIndex implements SimilarityIndex on a bbolt file. Every record is
// also held in an in-memory cache (primary map by id, secondary map by
// account handle) rebuilt on open and updated on every write, so reads
// and the brute-force cosine scan never touch disk.
type BoltIndex struct {
	path string

	mu      sync.RWMutex
	db      *bbolt.DB
	opening *openAttempt

	records  map[string]domain.ImageRecord
	byHandle map[string][]string
	dim      int // embedding dimensionality, fixed by the first record
}

type openAttempt struct {
	done chan struct{}
	err  error
}

// NewBoltIndex creates an index backed by the bbolt file at path. The
// file is opened lazily on first use.
func NewBoltIndex(path string) *BoltIndex {
	return &BoltIndex{
		path:     path,
		records:  make(map[string]domain.ImageRecord),
		byHandle: make(map[string][]string),
	}
}

// ensureOpen opens the database and loads the cache on first use.
// Concurrent first callers wait on the same in-flight attempt instead of
// each opening the file; a failed attempt leaves the index closed so a
// later call retries.
func (s *BoltIndex) ensureOpen() error {
	s.mu.Lock()
	if s.db != nil {
		s.mu.Unlock()
		return nil
	}
	if a := s.opening; a != nil {
		s.mu.Unlock()
		<-a.done
		return a.err
	}
	a := &openAttempt{done: make(chan struct{})}
	s.opening = a
	s.mu.Unlock()

	db, records, err := openAndLoad(s.path)

	s.mu.Lock()
	s.opening = nil
	if err == nil {
		s.db = db
		s.records = records
		s.byHandle = make(map[string][]string)
		s.dim = 0
		for id, rec := range records {
			s.byHandle[rec.AccountHandle] = append(s.byHandle[rec.AccountHandle], id)
			if s.dim == 0 {
				s.dim = len(rec.Embedding)
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		a.err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	close(a.done)
	return a.err
}

func openAndLoad(path string) (*bbolt.DB, map[string]domain.ImageRecord, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	records := make(map[string]domain.ImageRecord)
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketImages)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketImages, err)
		}
		return b.ForEach(func(k, v []byte) error {
			var rec domain.ImageRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil // Skip corrupted entries
			}
			records[string(k)] = rec
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, records, nil
}

// Insert assigns a fresh id and creation timestamp and persists the
// record. The cache is updated only after the write commits, so no
// partial record is ever visible.
func (s *BoltIndex) Insert(rec domain.ImageRecord) (string, error) {
	if err := s.ensureOpen(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim != 0 && len(rec.Embedding) != s.dim {
		return "", fmt.Errorf("%w: index stores %d-dim embeddings, got %d",
			domain.ErrDimensionMismatch, s.dim, len(rec.Embedding))
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketImages).Put([]byte(rec.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s.records[rec.ID] = rec
	s.byHandle[rec.AccountHandle] = append(s.byHandle[rec.AccountHandle], rec.ID)
	if s.dim == 0 {
		s.dim = len(rec.Embedding)
	}
	return rec.ID, nil
}

func (s *BoltIndex) GetAll() ([]domain.ImageRecord, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.ImageRecord, 0, len(s.records))
	for _, rec := range s.records {
		all = append(all, rec)
	}
	return all, nil
}

// QueryTopN scores every stored record against the query (brute force)
// and returns the first n, descending by cosine similarity.
func (s *BoltIndex) QueryTopN(query []float32, n int) ([]domain.SearchResult, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

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

func (s *BoltIndex) GetByAccountHandle(handle string) ([]domain.ImageRecord, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

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

func (s *BoltIndex) UniqueAccounts() ([]domain.AccountCount, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}

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

func (s *BoltIndex) Count() (int, error) {
	if err := s.ensureOpen(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *BoltIndex) Delete(id string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketImages).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
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

func (s *BoltIndex) Clear() error {
	if err := s.ensureOpen(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketImages); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketImages)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	s.records = make(map[string]domain.ImageRecord)
	s.byHandle = make(map[string][]string)
	s.dim = 0
	return nil
}

// Close releases the database handle. A later call reopens it lazily.
func (s *BoltIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.records = make(map[string]domain.ImageRecord)
	s.byHandle = make(map[string][]string)
	s.dim = 0
	return err
}
