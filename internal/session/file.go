package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pribylovaa/go-library-console/internal/models"
)

// FileStore — сессия в JSON-файле с правами 0600.
//
// Формат файла — models.Session как есть. Битый JSON и неполные записи
// Load трактует как отсутствие сессии: чинить нечего, пользователь просто
// логинится заново.
type FileStore struct {
	path string
}

// NewFileStore создаёт файловый бэкенд. При пустом path запись кладётся в
// каталог конфигурации пользователя (~/.config/library-console/session.json
// на Linux).
func NewFileStore(path string) (*FileStore, error) {
	const op = "session.NewFileStore"

	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("%s: user config dir: %w", op, err)
		}

		path = filepath.Join(base, "library-console", "session.json")
	}

	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(token, userID string) error {
	const op = "session.FileStore.Save"

	if token == "" || userID == "" {
		return fmt.Errorf("%s: refusing to save partial session", op)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	raw, err := json.Marshal(models.Session{AccessToken: token, UserID: userID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *FileStore) Load() (models.Session, error) {
	const op = "session.FileStore.Load"

	raw, err := os.ReadFile(s.path)
	if err != nil {
		// Нет файла, нет прав — это "не залогинен", а не авария.
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrAbsent)
	}

	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrAbsent)
	}

	if !sess.Valid() {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrAbsent)
	}

	return sess, nil
}

func (s *FileStore) Clear() error {
	const op = "session.FileStore.Clear"

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
