package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store — файловое blob-хранилище под фиксированным корнем. Все пути,
// приходящие снаружи, проходят через Resolve, чтобы чтение и удаление не
// могли выйти за пределы корня.
type Store struct {
	root string
}

var extByType = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: abs}, nil
}

// Save записывает буфер под новым именем и возвращает путь относительно корня.
func (s *Store) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, ok := extByType[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	rel := filepath.Join("receipts", uuid.NewString()+ext)
	abs, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

func (s *Store) Open(path string) ([]byte, error) {
	abs, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

func (s *Store) Remove(path string) error {
	abs, err := s.Resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(abs)
}

// Resolve проверяет, что путь после нормализации остаётся под корнем.
func (s *Store) Resolve(path string) (string, error) {
	abs := filepath.Join(s.root, filepath.Clean("/"+path))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return abs, nil
}
