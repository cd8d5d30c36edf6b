package persistence

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tankTopTaro/greyzone-game-room-app/snapshot"
)

// SnapshotStore keeps a room's snapshot in a Database.
type SnapshotStore struct {
	db     Database
	roomID string
}

func NewSnapshotStore(db Database, roomID string) *SnapshotStore {
	return &SnapshotStore{db: db, roomID: roomID}
}

func (s *SnapshotStore) Save(snap *snapshot.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.db.SaveSnapshot(s.roomID, data)
}

func (s *SnapshotStore) Load() (*snapshot.Snapshot, error) {
	data, err := s.db.LoadSnapshot(s.roomID)
	if errors.Is(err, ErrRecordNotFound) {
		return nil, snapshot.ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	return snapshot.Decode(data)
}

func (s *SnapshotStore) Clear() error {
	return s.db.DeleteSnapshot(s.roomID)
}
