package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/pribylovaa/go-library-console/internal/models"
)

// Имя записи внутри keychain-сервиса. Токен и идентификатор лежат одной
// записью (значение "token\nuserID"): системное хранилище не даёт
// транзакций на две записи, а одной записью частичная сессия невозможна
// в принципе.
const keyringUser = "session"

// KeyringStore — сессия в системном хранилище секретов (Secret Service /
// Keychain / Credential Manager) через zalando/go-keyring.
//
// Недоступный keyring (нет dbus, headless-сервер) на чтении деградирует до
// ErrAbsent; на записи ошибка возвращается вызывающему — вью логирует её и
// продолжает работать неавторизованно.
type KeyringStore struct {
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = "library-console"
	}

	return &KeyringStore{service: service}
}

func (s *KeyringStore) Save(token, userID string) error {
	const op = "session.KeyringStore.Save"

	if token == "" || userID == "" {
		return fmt.Errorf("%s: refusing to save partial session", op)
	}

	if err := keyring.Set(s.service, keyringUser, token+"\n"+userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *KeyringStore) Load() (models.Session, error) {
	const op = "session.KeyringStore.Load"

	value, err := keyring.Get(s.service, keyringUser)
	if err != nil {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrAbsent)
	}

	token, userID, ok := strings.Cut(value, "\n")
	if !ok {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrAbsent)
	}

	sess := models.Session{AccessToken: token, UserID: userID}
	if !sess.Valid() {
		return models.Session{}, fmt.Errorf("%s: %w", op, ErrAbsent)
	}

	return sess, nil
}

func (s *KeyringStore) Clear() error {
	const op = "session.KeyringStore.Clear"

	err := keyring.Delete(s.service, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
