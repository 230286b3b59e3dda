package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/marcosbarbosa-dev/appfinance/internal/models"
)

// ErrCorruptIdentity is returned when a persisted identity fails validation.
var ErrCorruptIdentity = errors.New("session: persisted identity is invalid")

// IdentityStore persists the signed-in user between runs.
type IdentityStore interface {
	// Load returns the persisted user, or nil when there is none.
	Load() (*models.User, error)
	Save(user *models.User) error
	Clear() error
}

const identitySchemaJSON = `{
  "type": "object",
  "required": ["uid", "username", "name", "role", "is_active", "is_first_login"],
  "properties": {
    "uid": {"type": "string", "minLength": 1},
    "username": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "role": {"enum": ["admin", "user"]},
    "is_active": {"type": "boolean"},
    "is_first_login": {"type": "boolean"},
    "avatar": {"type": "string"},
    "suspension_date": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"},
    "refresh_id": {"type": "string"}
  }
}`

var identitySchema = func() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(identitySchemaJSON))
	if err != nil {
		panic(err)
	}
	return schema
}()

// FileIdentityStore keeps the identity as a JSON document on disk.
type FileIdentityStore struct {
	path string
}

// NewFileIdentityStore stores the identity at path.
func NewFileIdentityStore(path string) *FileIdentityStore {
	return &FileIdentityStore{path: path}
}

// Path returns the file location.
func (s *FileIdentityStore) Path() string { return s.path }

// Load implements IdentityStore. A document that does not match the identity
// schema is reported as ErrCorruptIdentity.
func (s *FileIdentityStore) Load() (*models.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity: %w", err)
	}

	res, err := identitySchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIdentity, err)
	}
	if !res.Valid() {
		details := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrCorruptIdentity, strings.Join(details, "; "))
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIdentity, err)
	}
	return &user, nil
}

// Save implements IdentityStore. The file is replaced atomically.
func (s *FileIdentityStore) Save(user *models.User) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write identity: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace identity: %w", err)
	}
	return nil
}

// Clear implements IdentityStore.
func (s *FileIdentityStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove identity: %w", err)
	}
	return nil
}

// MemoryIdentityStore keeps the identity in memory.
type MemoryIdentityStore struct {
	mu   sync.Mutex
	user *models.User
}

// Load implements IdentityStore.
func (s *MemoryIdentityStore) Load() (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// Save implements IdentityStore.
func (s *MemoryIdentityStore) Save(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.user = &u
	return nil
}

// Clear implements IdentityStore.
func (s *MemoryIdentityStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}
