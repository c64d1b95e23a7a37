package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"inkwell/internal/domain"
	"inkwell/pkg/platform/sentinel"
)

// recordKey is the key the session record is persisted under; it matches the
// name established servers and clients of this API already use.
const recordKey = "userInfo"

// record is the flattened wire shape of the persisted session: the token plus
// the user fields at the top level.
type record struct {
	Token    string `json:"token"`
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image,omitempty"`
}

func toRecord(sess Session) record {
	return record{
		Token:    sess.Token,
		ID:       sess.User.ID,
		Username: sess.User.Username,
		Email:    sess.User.Email,
		Image:    sess.User.Image,
	}
}

func (r record) session() Session {
	return Session{
		Token: r.Token,
		User: domain.UserSummary{
			ID:       r.ID,
			Username: r.Username,
			Email:    r.Email,
			Image:    r.Image,
		},
	}
}

// FileStore keeps the session record in a single JSON file under the user's
// home directory.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, sentinel.ErrNoSession
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var doc map[string]record
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Session{}, fmt.Errorf("decode session file: %w", err)
	}
	rec, ok := doc[recordKey]
	if !ok || rec.Token == "" {
		return Session{}, sentinel.ErrNoSession
	}
	return rec.session(), nil
}

func (s *FileStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.Marshal(map[string]record{recordKey: toRecord(sess)})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStore keeps the record in memory. Test use only.
type MemoryStore struct {
	mu  sync.Mutex
	rec *record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return Session{}, sentinel.ErrNoSession
	}
	return s.rec.session(), nil
}

func (s *MemoryStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := toRecord(sess)
	s.rec = &rec
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
