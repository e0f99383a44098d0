package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pribylovaa/go-library-console/internal/client"
	"github.com/pribylovaa/go-library-console/internal/models"
	"github.com/pribylovaa/go-library-console/internal/pkg/log"
	"github.com/pribylovaa/go-library-console/internal/session"
)

// AuthAPI — операция входа.
type AuthAPI interface {
	Login(ctx context.Context, externalID string) (models.LoginResult, error)
}

// Login — вью входа: обмен библиотечного ID на токен и сохранение сессии.
type Login struct {
	api   AuthAPI
	store session.Store
	out   io.Writer
}

func NewLogin(api AuthAPI, store session.Store, out io.Writer) *Login {
	return &Login{api: api, store: store, out: out}
}

// Run выполняет вход.
//
// Отказ сервера (неизвестный ID) стирает сохранённую сессию: недействительный
// хвост от прошлого входа хуже, чем его отсутствие. Транспортный отказ
// хранилище не трогает — сервер мог быть просто выключен.
func (v *Login) Run(ctx context.Context, externalID string) error {
	const op = "views.Login.Run"

	externalID = strings.TrimSpace(externalID)

	res, err := v.api.Login(ctx, externalID)
	if err != nil {
		switch {
		case errors.Is(err, client.ErrEmptyUserID):
			fmt.Fprintln(v.out, "Please enter your library ID.")
			return nil
		case errors.Is(err, client.ErrUnavailable):
			fmt.Fprintln(v.out, "Could not reach the central service. Please try again in a moment.")
			return fmt.Errorf("%s: %w", op, err)
		case errors.Is(err, client.ErrBadResponse):
			fmt.Fprintln(v.out, "The central service returned an unexpected response. Please try again in a moment.")
			return fmt.Errorf("%s: %w", op, err)
		default:
			if cerr := v.store.Clear(); cerr != nil {
				log.From(ctx).Warn("session_clear_failed",
					slog.String("op", op),
					slog.String("err", cerr.Error()),
				)
			}

			msg := client.UserMessage(err)
			if msg == "" {
				msg = "Login failed. Please check your ID and try again."
			}
			fmt.Fprintln(v.out, msg)

			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if serr := v.store.Save(res.AccessToken, externalID); serr != nil {
		// Хранилище недоступно — работаем, но сессию не запомним.
		log.From(ctx).Warn("session_save_failed",
			slog.String("op", op),
			slog.String("err", serr.Error()),
		)
		fmt.Fprintln(v.out, "Signed in, but the session could not be saved on this machine. "+
			"You will need to sign in again next time.")
	}

	if res.User.Name != "" {
		fmt.Fprintf(v.out, "Signed in as %s (%s", res.User.Name, externalID)
		if res.User.HomeBranch != "" {
			fmt.Fprintf(v.out, ", home branch %s", res.User.HomeBranch)
		}
		fmt.Fprintln(v.out, "). You can now search and borrow books.")
	} else {
		fmt.Fprintf(v.out, "Signed in as %s. You can now search and borrow books.\n", externalID)
	}

	return nil
}
