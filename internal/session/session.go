// session — устойчивое хранение сессии читателя (bearer-токен + идентификатор).
//
// Контракт (канонизирует двусмысленность исходного дизайна):
//   - токен и идентификатор сохраняются и читаются только парой;
//   - частичная запись — это отсутствие сессии: Load возвращает ErrAbsent;
//   - недоступное хранилище деградирует до "не залогинен", а не до падения
//     консоли: Load в этом случае тоже отдаёт ErrAbsent;
//   - область хранения ровно одна (файл или системный keychain), без
//     дублирования в двух scope, как было у исходного фронтенда.
//
// Никакой логики истечения или refresh здесь нет: токен непрозрачен для
// клиента, сервер — единственный арбитр его валидности.
package session

import (
	"errors"
	"fmt"

	"github.com/pribylovaa/go-library-console/internal/config"
	"github.com/pribylovaa/go-library-console/internal/models"
)

var (
	// ErrAbsent — сессии нет: не сохранялась, стёрта, запись неполна
	// или хранилище недоступно. Вью показывают подсказку про login.
	ErrAbsent = errors.New("session absent")
)

// Store — интерфейс хранилища сессии.
type Store interface {
	// Save сохраняет пару целиком. Пустой токен или идентификатор — ошибка:
	// писать половину записи запрещено контрактом.
	Save(token, userID string) error
	// Load возвращает сессию или ErrAbsent.
	Load() (models.Session, error)
	// Clear удаляет запись. Отсутствие записи — не ошибка.
	Clear() error
}

// New выбирает бэкенд по конфигурации.
func New(cfg config.SessionConfig) (Store, error) {
	const op = "session.New"

	switch cfg.Backend {
	case config.SessionBackendKeyring:
		return NewKeyringStore(cfg.Service), nil
	case config.SessionBackendFile:
		st, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return st, nil
	default:
		return nil, fmt.Errorf("%s: unknown backend %q", op, cfg.Backend)
	}
}
