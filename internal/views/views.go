// views — контроллеры экранов консоли: дашборд, каталог с займом,
// филиалы, займы читателя, вход.
//
// Каждая вью держит свои зависимости явно (клиент, хранилище сессии,
// io.Writer) — никакого состояния на уровне пакета. Состояние вью живёт
// один запуск команды: fetch -> render -> discard; переживает запуски
// только сессия в session.Store.
//
// Правило отказов: каждая ветка заканчивается терминальным сообщением
// пользователю. Транспортные отказы ("проверьте, что сервис запущен")
// формулируются иначе, чем прикладные (текст сервера или общий fallback).
package views

import (
	"errors"
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/pribylovaa/go-library-console/internal/client"
	"github.com/pribylovaa/go-library-console/internal/models"
)

// Подсказка при попытке занять книгу без сессии. Печатается до любого
// обращения к сети.
const msgSignInRequired = "You need to sign in before borrowing. " +
	"Run `library-console login <library-id>`, then try again."

// Стили терминального вывода. Плашки статусов повторяют палитру исходных
// CSS-классов online/degraded/offline.
var (
	stylePillOnline   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	stylePillDegraded = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	stylePillOffline  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	styleBadgeEmpty = lipgloss.NewStyle().Faint(true)
	styleHeader     = lipgloss.NewStyle().Bold(true)
)

// statusPill — раскрашенная плашка статуса филиала.
func statusPill(s models.BranchStatus) string {
	switch s {
	case models.StatusOnline:
		return stylePillOnline.Render("Online")
	case models.StatusDegraded:
		return stylePillDegraded.Render("Degraded")
	default:
		return stylePillOffline.Render("Offline")
	}
}

// fetchFailureLine — сообщение об отказе загрузки списка (каталог,
// филиалы, займы).
func fetchFailureLine(err error, what string) string {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return fmt.Sprintf("We couldn't load the %s. Make sure the central service is running.", what)
	case errors.Is(err, client.ErrBadResponse):
		return fmt.Sprintf("The central service returned an unexpected response while loading the %s.", what)
	default:
		if msg := client.UserMessage(err); msg != "" {
			return msg
		}

		return fmt.Sprintf("We couldn't load the %s. Please try again in a moment.", what)
	}
}

// truncate — обрезка значения под ширину колонки.
// Режет по рунам: байтовый срез ломал бы многобайтные названия.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}

	return string(r[:max-3]) + "..."
}
