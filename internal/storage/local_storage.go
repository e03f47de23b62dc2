package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const resumesDir = "resumes"

var ErrInvalidPath = errors.New("storage: path escapes storage root")

// LocalStorage holds the permanent per-owner copies of analysed resumes under
// <basePath>/resumes/<ownerID>/<unixMillis>_<originalName>.
type LocalStorage struct {
	basePath string
	now      func() time.Time
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(filepath.Join(basePath, resumesDir), os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath, now: time.Now}, nil
}

func (ls *LocalStorage) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(ls.basePath, clean), nil
}

// Promote copies the staged file into the owner's directory and returns the
// slash-separated path relative to the storage root. The source is left in
// place; releasing it stays with the caller.
func (ls *LocalStorage) Promote(srcPath, ownerID, originalName string) (string, error) {
	const op = "storage.Promote"

	if ownerID == "" || strings.ContainsAny(ownerID, `/\`) || ownerID == "." || ownerID == ".." {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidPath)
	}

	name := fmt.Sprintf("%d_%s", ls.now().UnixMilli(), SanitizeFileName(originalName))
	rel := filepath.ToSlash(filepath.Join(resumesDir, ownerID, name))
	dst := filepath.Join(ls.basePath, resumesDir, ownerID, name)

	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return rel, nil
}

func (ls *LocalStorage) Open(relPath string) (io.ReadCloser, error) {
	filePath, err := ls.resolve(relPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s not found: %w", relPath, err)
		}
		return nil, err
	}

	return file, nil
}

// Delete removes a promoted file. A file that is already gone is not an error.
func (ls *LocalStorage) Delete(relPath string) error {
	filePath, err := ls.resolve(relPath)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// SanitizeFileName keeps only the base name of a client supplied file name.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "resume"
	}
	return name
}
