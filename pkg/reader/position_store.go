package reader

import (
	"encoding/json"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketPositions = []byte("file_positions") // Path -> Position
)

// boltPositionStore implements PositionStore using BoltDB.
type boltPositionStore struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBoltPositionStore creates a BoltDB-based position store.
//
// Parameters:
//   - db: BoltDB database instance
//
// Returns:
//   - Configured PositionStore
//   - Error if initialization fails
func NewBoltPositionStore(db *bolt.DB) (PositionStore, error) {
	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketPositions)
		return createErr
	}); err != nil {
		return nil, fmt.Errorf("failed to create positions bucket: %w", err)
	}

	return &boltPositionStore{
		db: db,
	}, nil
}

// GetPosition implements PositionStore.GetPosition.
func (s *boltPositionStore) GetPosition(path string) (Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pos Position

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPositions).Get([]byte(path))
		if data == nil {
			// No position stored, start from beginning.
			return nil
		}

		if unmarshalErr := json.Unmarshal(data, &pos); unmarshalErr != nil {
			return fmt.Errorf("failed to unmarshal position: %w", unmarshalErr)
		}
		return nil
	})
	if err != nil {
		return Position{}, err
	}

	return pos, nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *boltPositionStore) SetPosition(path string, pos Position) error {
	if pos.Offset < 0 {
		return ErrInvalidOffset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(pos)
		if err != nil {
			return fmt.Errorf("failed to marshal position: %w", err)
		}

		if putErr := tx.Bucket(bucketPositions).Put([]byte(path), data); putErr != nil {
			return fmt.Errorf("failed to store position: %w", putErr)
		}
		return nil
	})
}

// DeletePosition implements PositionStore.DeletePosition.
func (s *boltPositionStore) DeletePosition(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPositions).Delete([]byte(path))
	})
}

// memoryPositionStore implements PositionStore using an in-memory map.
type memoryPositionStore struct {
	positions map[string]Position
	mu        sync.RWMutex
}

// NewMemoryPositionStore creates an in-memory position store.
//
// Useful for testing or when persistence is not needed.
func NewMemoryPositionStore() PositionStore {
	return &memoryPositionStore{
		positions: make(map[string]Position),
	}
}

// GetPosition implements PositionStore.GetPosition.
func (s *memoryPositionStore) GetPosition(path string) (Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.positions[path], nil
}

// SetPosition implements PositionStore.SetPosition.
func (s *memoryPositionStore) SetPosition(path string, pos Position) error {
	if pos.Offset < 0 {
		return ErrInvalidOffset
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[path] = pos
	return nil
}

// DeletePosition implements PositionStore.DeletePosition.
func (s *memoryPositionStore) DeletePosition(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.positions, path)
	return nil
}
