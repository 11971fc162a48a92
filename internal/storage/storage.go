// Package storage keeps uploaded images on local disk and validates uploads.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/utils"
)

var (
	ErrNoFile               = errors.New("no file uploaded")
	ErrTooManyFiles         = errors.New("only one file may be uploaded")
	ErrImageTooLarge        = errors.New("file exceeds the upload size limit")
	ErrUnsupportedImageType = errors.New("only image files are allowed")
	ErrInvalidName          = errors.New("invalid file name")
	ErrFileNotFound         = errors.New("file not found")
)

var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

// Stored names look like post-1700000000000-9f86d081884c7d65.png.
var namePattern = regexp.MustCompile(`^[a-z]+-[0-9]+-[0-9a-f]+\.[a-z0-9]+$`)

// LocalStore stores files under a single directory.
type LocalStore struct {
	dir string
	now func() time.Time
}

// NewLocalStore creates root/namespace if needed.
func NewLocalStore(root, namespace string) (*LocalStore, error) {
	dir := filepath.Join(root, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

// Save writes data under a generated collision-resistant name and returns it.
func (s *LocalStore) Save(prefix string, data []byte, ext string) (string, error) {
	suffix, err := utils.RandomHex(8)
	if err != nil {
		return "", err
	}
	name := prefix + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + suffix + ext
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return name, nil
}

// ValidName reports whether name has the shape of a name produced by Save.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// Path resolves a stored name to its file path. Names that were not
// produced by Save are rejected.
func (s *LocalStore) Path(name string) (string, error) {
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrFileNotFound
		}
		return "", err
	}
	return path, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(name string) error {
	if !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DetectImage sniffs the content type and returns the extension to store it
// under. The client-declared content type is ignored.
func DetectImage(data []byte) (ext string, mime string, err error) {
	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return "", mtype.String(), ErrUnsupportedImageType
	}
	return mtype.Extension(), mtype.String(), nil
}

// ReadSingleFile enforces a single file in field and reads at most maxSize
// bytes from it.
func ReadSingleFile(form *multipart.Form, field string, maxSize int64) ([]byte, error) {
	if form == nil {
		return nil, ErrNoFile
	}

	files := form.File[field]
	if len(files) == 0 {
		return nil, ErrNoFile
	}

	total := 0
	for _, fhs := range form.File {
		total += len(fhs)
	}
	if total > constants.MaxUploadFiles {
		return nil, ErrTooManyFiles
	}

	fh := files[0]
	if fh.Size > maxSize {
		return nil, ErrImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrImageTooLarge
	}
	if len(data) == 0 {
		return nil, ErrNoFile
	}
	return data, nil
}
