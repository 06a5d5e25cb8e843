package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/dmitrymomot/marketplace/pkg/schema"
)

// TenantRoot is the directory holding every tenant's files.
const TenantRoot = "tenant"

// Object describes a stored file.
type Object struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	URL         string `json:"url"`
}

// Storage is a flat key/value file store where "/" separates directories.
type Storage interface {
	// Put writes r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
	// Delete removes a single object. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, key string) error
	// DeleteDir removes every object under dir. A missing dir is not an error.
	DeleteDir(ctx context.Context, dir string) error
	// List returns the objects directly under dir.
	List(ctx context.Context, dir string) ([]Object, error)
	// URL returns the public URL of key.
	URL(key string) string
}

// TenantDir returns the media directory of a schema. The public schema maps to the root.
func TenantDir(name string) string {
	if schema.IsPublic(name) {
		return ""
	}
	return TenantRoot + "/" + name
}

// cleanKey normalizes a key and rejects anything escaping the storage root.
func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.ReplaceAll(key, `\`, "/"), "/")
	if key == "" {
		return "", nil
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return path.Clean(key), nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SanitizeFilename reduces an uploaded file name to a safe single path segment.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	if len(name) > 255 {
		ext := path.Ext(name)
		name = name[:255-len(ext)] + ext
	}
	return name
}

// Scoped confines a Storage to one directory.
type Scoped struct {
	store Storage
	dir   string
}

// ForSchema binds store to the media directory of the named schema.
func ForSchema(store Storage, name string) *Scoped {
	return &Scoped{store: store, dir: TenantDir(name)}
}

// Dir returns the directory the scope is bound to.
func (s *Scoped) Dir() string {
	return s.dir
}

// Put stores a file under name inside the scope.
func (s *Scoped) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (*Object, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	return s.store.Put(ctx, key, r, size, contentType)
}

// Delete removes name from the scope.
func (s *Scoped) Delete(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, key)
}

// List returns the files stored directly in the scope.
func (s *Scoped) List(ctx context.Context) ([]Object, error) {
	return s.store.List(ctx, s.dir)
}

// URL returns the public URL of the scope's root.
func (s *Scoped) URL() string {
	return s.store.URL(s.dir)
}

func (s *Scoped) key(name string) (string, error) {
	name, err := cleanKey(name)
	if err != nil {
		return "", err
	}
	if name == "" || name == "." {
		return "", fmt.Errorf("%w: empty name", ErrInvalidKey)
	}
	return path.Join(s.dir, name), nil
}
