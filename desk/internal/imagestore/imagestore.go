package imagestore

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// MaxNameLen matches the books.image_filename column.
const MaxNameLen = 120

// stored names are "<uuid>_<sanitized name>"
const prefixLen = 36 + 1

var (
	ErrInvalidName = errors.New("invalid image filename")
	ErrTooLarge    = errors.New("image is too large")
)

// Store keeps uploaded book images in a flat directory keyed by sanitized filename.
type Store struct {
	dir      string
	maxBytes int64
	log      *zap.Logger
}

func New(dir string, maxBytes int64, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload dir")
	}
	return &Store{
		dir:      dir,
		maxBytes: maxBytes,
		log:      log.Named("images"),
	}, nil
}

// Save writes content under a new unique name derived from the sanitized form of name
// and returns it. Existing files are never replaced.
func (s *Store) Save(name string, content io.Reader) (string, error) {
	clean := SanitizeFilename(name)
	if clean == "" {
		return "", ErrInvalidName
	}
	clean = uuid.New().String() + "_" + truncateName(clean, MaxNameLen-prefixLen)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	src := content
	if s.maxBytes > 0 {
		src = io.LimitReader(content, s.maxBytes+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Wrap(err, "write image")
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return "", ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, clean)); err != nil {
		return "", errors.Wrap(err, "store image")
	}
	s.log.Debug("image stored", zap.String("name", clean), zap.Int64("bytes", n))
	return clean, nil
}

func (s *Store) Remove(name string) {
	clean := SanitizeFilename(name)
	if clean == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, clean)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("remove image", zap.String("name", clean), zap.Error(err))
	}
}

// Path resolves a request name to a file inside the store. Names that change under
// sanitization are rejected so a request can never address a path outside dir.
func (s *Store) Path(name string) (string, error) {
	clean := SanitizeFilename(name)
	if clean == "" || clean != name {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, clean), nil
}

// SanitizeFilename keeps the base name, maps whitespace to '_', drops every rune
// outside [A-Za-z0-9._-], strips leading dots and underscores and cuts the result
// to MaxNameLen keeping the extension.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == ' ' || r == '\t':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return truncateName(strings.TrimLeft(b.String(), "._"), MaxNameLen)
}

// truncateName expects an ASCII name.
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) >= limit {
		return name[:limit]
	}
	return name[:limit-len(ext)] + ext
}
