package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	nanoid "github.com/jaevor/go-nanoid"
)

var (
	ErrFileTooLarge    = errors.New("storage: file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("storage: file type not allowed")
	ErrEmptyUpload     = errors.New("storage: upload is empty")
)

// TempFile is a staged upload. Release must be called on every exit path;
// it removes the file once no matter how often it is called.
type TempFile struct {
	Path         string
	OriginalName string
	Size         int64
	MIMEType     string

	once sync.Once
	err  error
}

func (t *TempFile) Release() error {
	t.once.Do(func() {
		err := os.Remove(t.Path)
		if err != nil && !os.IsNotExist(err) {
			t.err = err
		}
	})
	return t.err
}

// Stager writes uploads into the temp directory and enforces the size limit
// and the content-type allow-list.
type Stager struct {
	dir      string
	maxBytes int64
	allowed  []string
	suffix   func() string
	now      func() time.Time
}

func NewStager(dir string, maxBytes int64, allowed []string) (*Stager, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	suffix, err := nanoid.Standard(12)
	if err != nil {
		return nil, err
	}
	return &Stager{
		dir:      dir,
		maxBytes: maxBytes,
		allowed:  allowed,
		suffix:   suffix,
		now:      time.Now,
	}, nil
}

func (s *Stager) MaxBytes() int64 {
	return s.maxBytes
}

// Stage copies r into a uniquely named temp file and checks it. Rejected
// uploads are removed before the error is returned.
func (s *Stager) Stage(r io.Reader, originalName string) (*TempFile, error) {
	const op = "storage.Stage"

	ext := strings.ToLower(filepath.Ext(SanitizeFileName(originalName)))
	name := fmt.Sprintf("%d-%s%s", s.now().UnixNano(), s.suffix(), ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tmp := &TempFile{Path: path, OriginalName: SanitizeFileName(originalName)}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		tmp.Release()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if n > s.maxBytes {
		tmp.Release()
		return nil, fmt.Errorf("%s: %w", op, ErrFileTooLarge)
	}
	if n == 0 {
		tmp.Release()
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyUpload)
	}
	tmp.Size = n

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		tmp.Release()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	detected, ok := s.match(mtype)
	if !ok {
		tmp.Release()
		return nil, fmt.Errorf("%s: %s: %w", op, mtype.String(), ErrUnsupportedType)
	}
	tmp.MIMEType = detected

	return tmp, nil
}

// match reports the allow-listed name the detected type (or one of its
// aliases) corresponds to.
func (s *Stager) match(m *mimetype.MIME) (string, bool) {
	for _, allowed := range s.allowed {
		if m.Is(allowed) {
			return allowed, true
		}
	}
	return "", false
}
