package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Cache persists the authenticated user snapshot between restarts, the
// way a browser keeps the serialized user in local storage. The snapshot
// is stale-until-logout: restoring from it does not re-contact the
// identity gateway.
type Cache interface {
	Load() (*User, error)
	Save(User) error
	Clear() error
}

// FileCache stores the snapshot as a JSON file under the configured
// directory, keyed "user".
type FileCache struct {
	mu  sync.Mutex
	dir string
}

// NewFileCache creates the directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path() string { return filepath.Join(c.dir, "user.json") }

// Load returns the cached user, or (nil, nil) when nothing is cached.
func (c *FileCache) Load() (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := os.ReadFile(c.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		// A corrupt snapshot behaves like an empty one.
		return nil, nil
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// Save overwrites the snapshot.
func (c *FileCache) Save(u User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(), data, 0o600)
}

// Clear removes the snapshot; clearing an absent snapshot is not an error.
func (c *FileCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// memoryCache is the zero-dependency Cache used when no directory is
// configured (tests, stateless deployments).
type memoryCache struct {
	mu   sync.Mutex
	user *User
}

// NewMemoryCache returns an in-process Cache.
func NewMemoryCache() Cache { return &memoryCache{} }

func (c *memoryCache) Load() (*User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil, nil
	}
	u := *c.user
	return &u, nil
}

func (c *memoryCache) Save(u User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = &u
	return nil
}

func (c *memoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	return nil
}
