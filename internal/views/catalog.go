package views

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pribylovaa/go-library-console/internal/client"
	"github.com/pribylovaa/go-library-console/internal/models"
	"github.com/pribylovaa/go-library-console/internal/session"
)

// CatalogAPI — операции центрального сервиса, нужные каталогу.
type CatalogAPI interface {
	SearchCatalog(ctx context.Context, query string) ([]models.Book, error)
	Borrow(ctx context.Context, token, isbn, branchCode string) (models.BorrowResult, error)
}

// Состояния бейджа доступности. Переходы:
//
//	Available -> Pending (клик при валидной сессии)
//	Pending   -> Available (отказ сервера; счётчики не тронуты)
//	Pending   -> Available|Empty (успех; decrement ровно на 1)
//
// Empty терминален до следующего Load.
type badgeState int

const (
	badgeAvailable badgeState = iota
	badgePending
	badgeEmpty
)

// badge — доступность одной книги в одном филиале; то, по чему "кликают".
// Счётчики — локальная проекция серверных данных: decrement после успеха
// лишь подсказка UI и живёт до следующего полного Load.
type badge struct {
	isbn       string
	title      string
	branchCode string
	total      int
	available  int
	state      badgeState
}

func (b *badge) label() string {
	return fmt.Sprintf("%s: %d/%d available", b.branchCode, b.available, b.total)
}

// Catalog — вью каталога с потоком займа.
type Catalog struct {
	api   CatalogAPI
	store session.Store
	out   io.Writer

	mu        sync.Mutex
	gen       uint64
	lastQuery string
	books     []models.Book
	badges    []*badge
}

func NewCatalog(api CatalogAPI, store session.Store, out io.Writer) *Catalog {
	return &Catalog{api: api, store: store, out: out}
}

// Load загружает каталог и перерисовывает таблицу. Повторный Load полностью
// замещает проекцию — строки не накапливаются, локальные decrement'ы
// сбрасываются серверной правдой.
//
// Защита от гонки устаревших ответов: Load получает номер поколения до
// запроса; результат коммитится, только если новее никто не стартовал.
func (c *Catalog) Load(ctx context.Context, query string) error {
	const op = "views.Catalog.Load"

	gen := c.beginLoad(query)

	books, err := c.api.SearchCatalog(ctx, query)
	if err != nil {
		fmt.Fprintln(c.out, fetchFailureLine(err, "catalog"))
		return fmt.Errorf("%s: %w", op, err)
	}

	if !c.commit(gen, books) {
		// Устаревший ответ: более новый запрос уже в полёте или завершён.
		return nil
	}

	c.Render()

	return nil
}

// beginLoad выделяет поколение запроса и запоминает последний query.
func (c *Catalog) beginLoad(query string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.lastQuery = query

	return c.gen
}

// commit публикует результат, если его поколение всё ещё текущее.
func (c *Catalog) commit(gen uint64, books []models.Book) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}

	c.books = books
	c.badges = c.badges[:0]
	for i := range books {
		for _, av := range books[i].Branches {
			b := &badge{
				isbn:       books[i].ISBN,
				title:      books[i].Title,
				branchCode: av.BranchCode,
				total:      av.TotalCopies,
				available:  av.AvailableCopies,
				state:      badgeAvailable,
			}
			if b.available <= 0 {
				b.available = 0
				b.state = badgeEmpty
			}

			c.badges = append(c.badges, b)
		}
	}

	return true
}

// Render рисует текущую проекцию каталога.
func (c *Catalog) Render() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.books) == 0 {
		fmt.Fprintln(c.out, "No titles found.")
		fmt.Fprintln(c.out, "0 titles shown.")
		return
	}

	fmt.Fprintln(c.out, styleHeader.Render(fmt.Sprintf("%-32s %-24s %-15s %s", "Title", "Author", "ISBN", "Availability")))

	n := 0
	for i := range c.books {
		book := &c.books[i]

		var cells []string
		for range book.Branches {
			b := c.badges[n]
			n++

			label := fmt.Sprintf("[%d] %s", n, b.label())
			if b.state == badgeEmpty {
				label = styleBadgeEmpty.Render(label)
			}

			cells = append(cells, label)
		}

		availability := "no branch availability yet"
		if len(cells) > 0 {
			availability = strings.Join(cells, "  ")
		}

		author := book.Author
		if author == "" {
			author = "-"
		}

		fmt.Fprintf(c.out, "%-32s %-24s %-15s %s\n",
			truncate(book.Title, 32), truncate(author, 24), book.ISBN, availability)
	}

	if len(c.books) == 1 {
		fmt.Fprintln(c.out, "1 title shown.")
	} else {
		fmt.Fprintf(c.out, "%d titles shown.\n", len(c.books))
	}
}

// Borrow — клик по бейджу n (нумерация с 1, как в выводе Render).
//
// Предусловие: валидная сессия (токен и идентификатор вместе); иначе —
// подсказка про login без единого обращения к сети. Pending-бейдж
// повторный клик отвергает; Empty — кликабельным не бывает.
func (c *Catalog) Borrow(ctx context.Context, n int) error {
	const op = "views.Catalog.Borrow"

	c.mu.Lock()

	if n < 1 || n > len(c.badges) {
		c.mu.Unlock()
		fmt.Fprintf(c.out, "No badge %d on screen. Use the numbers shown in the availability column.\n", n)
		return nil
	}

	b := c.badges[n-1]

	switch b.state {
	case badgePending:
		c.mu.Unlock()
		fmt.Fprintln(c.out, "A borrow request for this badge is already in flight.")
		return nil
	case badgeEmpty:
		c.mu.Unlock()
		fmt.Fprintln(c.out, "No copies available at this branch.")
		return nil
	}

	sess, serr := c.store.Load()
	if serr != nil || !sess.Valid() {
		c.mu.Unlock()
		fmt.Fprintln(c.out, msgSignInRequired)
		return nil
	}

	b.state = badgePending
	isbn, branchCode := b.isbn, b.branchCode
	c.mu.Unlock()

	fmt.Fprintf(c.out, "Placing a loan for %s at %s...\n", sess.UserID, branchCode)

	res, err := c.api.Borrow(ctx, sess.AccessToken, isbn, branchCode)
	if err != nil {
		// Счётчики не тронуты; бейдж снова кликабелен.
		c.mu.Lock()
		b.state = badgeAvailable
		c.mu.Unlock()

		fmt.Fprintln(c.out, borrowFailureLine(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	c.mu.Lock()
	if b.available > 0 {
		b.available--
	}
	if b.available == 0 {
		b.state = badgeEmpty
	} else {
		b.state = badgeAvailable
	}
	label := b.label()
	c.mu.Unlock()

	fmt.Fprintf(c.out, "Success! The book has been borrowed from %s. Due date: %s.\n",
		branchCode, res.DueAt.Format("02 Jan 2006"))
	fmt.Fprintf(c.out, "[%d] %s\n", n, label)

	return nil
}

// borrowFailureLine — сообщение об отказе займа.
func borrowFailureLine(err error) string {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "Network error while talking to the central service. " +
			"Please check that everything is running and try again."
	case errors.Is(err, client.ErrUnauthorized):
		return "Your session is no longer valid. Sign in again with `library-console login <library-id>`."
	default:
		if msg := client.UserMessage(err); msg != "" {
			return msg
		}

		return "We couldn't complete the borrow request. Please try again in a moment."
	}
}

// Run — интерактивный цикл каталога: первичная загрузка, затем команды
// search/borrow/refresh/quit из in.
func (c *Catalog) Run(ctx context.Context, in io.Reader, query string) error {
	// Отказ первичной загрузки не прерывает цикл: сообщение уже напечатано,
	// сервис мог подняться к следующему refresh.
	_ = c.Load(ctx, query)

	if _, serr := c.store.Load(); serr == nil {
		fmt.Fprintln(c.out, "You are signed in. Borrow with `borrow <badge-number>`.")
	} else {
		fmt.Fprintln(c.out, "Browse is open to everyone. To borrow, sign in first: `library-console login <library-id>`.")
	}
	fmt.Fprintln(c.out, "Commands: search <text> | borrow <n> | refresh | quit")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(c.out, "\ncatalog> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "":
		case "search":
			_ = c.Load(ctx, rest)
		case "refresh":
			c.mu.Lock()
			last := c.lastQuery
			c.mu.Unlock()
			_ = c.Load(ctx, last)
		case "borrow":
			n, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Fprintln(c.out, "Usage: borrow <badge-number>")
				continue
			}
			_ = c.Borrow(ctx, n)
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintln(c.out, "Commands: search <text> | borrow <n> | refresh | quit")
		}
	}
}
