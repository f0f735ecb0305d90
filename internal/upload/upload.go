package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"imgchat/internal/models"
)

const (
	fallbackName   = "upload"
	maxNameRetries = 1000
)

var (
	ErrInvalidName = errors.New("invalid file name")

	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// Dir is the shared uploads directory. Files are never removed by the service.
type Dir struct {
	root string
}

// NewDir creates the directory if needed.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("upload dir must be configured")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Dir{root: abs}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// Sanitize turns a client supplied name into a flat ASCII file name with no
// path components.
func Sanitize(name string) string {
	name = norm.NFKD.String(name)
	name = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, name)
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return fallbackName
	}
	return name
}

// StorageName returns a fresh opaque name that keeps only the extension of displayName.
func StorageName(displayName string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + filepath.Ext(displayName)
}

// Save writes r under the sanitized form of name. An existing file is never
// overwritten; a numeric suffix is added instead.
func (d *Dir) Save(name string, r io.Reader) (*models.UploadedFile, error) {
	clean := Sanitize(name)
	f, finalName, err := d.createUnique(clean)
	if err != nil {
		return nil, err
	}
	size, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(f.Name())
		if copyErr != nil {
			return nil, fmt.Errorf("write upload: %w", copyErr)
		}
		return nil, fmt.Errorf("close upload: %w", closeErr)
	}
	return &models.UploadedFile{
		DisplayName: finalName,
		StorageName: StorageName(finalName),
		Path:        f.Name(),
		Size:        size,
	}, nil
}

func (d *Dir) createUnique(filename string) (*os.File, string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for idx := 0; ; idx++ {
		candidate := filename
		switch {
		case idx == 0:
		case idx <= maxNameRetries:
			candidate = fmt.Sprintf("%s_%d%s", base, idx, ext)
		default:
			candidate = fmt.Sprintf("%s_%d%s", base, time.Now().UnixNano(), ext)
		}
		f, err := os.OpenFile(filepath.Join(d.root, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, os.ErrExist) || idx > maxNameRetries {
			return nil, "", fmt.Errorf("create upload: %w", err)
		}
	}
}

// Path resolves a display name inside the directory. Anything that is not a
// plain base name is rejected.
func (d *Dir) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	return filepath.Join(d.root, name), nil
}

// Open returns a reader for a previously saved file.
func (d *Dir) Open(name string) (*os.File, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}
