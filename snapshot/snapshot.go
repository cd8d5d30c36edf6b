package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tankTopTaro/greyzone-game-room-app/models"
)

var ErrNoSnapshot = errors.New("no snapshot stored")

// Snapshot is the persisted state of the active session, replayed to
// monitors that join mid-session.
type Snapshot struct {
	Players       []*models.Player `json:"players"`
	Team          *models.Team     `json:"team"`
	RoomType      string           `json:"roomType"`
	Rule          int              `json:"rule"`
	Level         int              `json:"level"`
	BookRoomUntil *time.Time       `json:"book_room_until"`
	Countdown     int              `json:"countdown"`
	Lifes         int              `json:"lifes"`
	PrepTime      int              `json:"prepTime"`
	Score         int              `json:"score"`
}

// Store holds at most one snapshot.
type Store interface {
	Save(s *Snapshot) error
	Load() (*Snapshot, error)
	Clear() error
}

// FileStore keeps the snapshot as a JSON file, replaced atomically on save.
type FileStore struct {
	path  string
	mutex sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Save(s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) Load() (*Snapshot, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data)
}

func (f *FileStore) Clear() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Decode parses a stored snapshot. Empty input means no snapshot.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, ErrNoSnapshot
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// MemoryStore keeps the snapshot in process.
type MemoryStore struct {
	data  []byte
	mutex sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(s *Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	m.mutex.Lock()
	m.data = data
	m.mutex.Unlock()
	return nil
}

func (m *MemoryStore) Load() (*Snapshot, error) {
	m.mutex.Lock()
	data := m.data
	m.mutex.Unlock()
	return Decode(data)
}

func (m *MemoryStore) Clear() error {
	m.mutex.Lock()
	m.data = nil
	m.mutex.Unlock()
	return nil
}
