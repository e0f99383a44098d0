package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pribylovaa/go-library-console/internal/models"
	"github.com/pribylovaa/go-library-console/internal/session"
)

// DashboardAPI — выборки для сводки: филиалы и каталог.
type DashboardAPI interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
	SearchCatalog(ctx context.Context, query string) ([]models.Book, error)
}

// Dashboard — сводная панель: счётчики сети, превью первых филиалов,
// состояние сессии. Чисто презентационная, бизнес-правил нет.
type Dashboard struct {
	api   DashboardAPI
	store session.Store
	out   io.Writer
}

func NewDashboard(api DashboardAPI, store session.Store, out io.Writer) *Dashboard {
	return &Dashboard{api: api, store: store, out: out}
}

// Сколько филиалов показывает превью.
const previewBranches = 3

// Render печатает сводку. Две выборки независимы и идут параллельно;
// отказ одной не блокирует вторую — для упавшей печатается своя строка
// отказа, остальное рендерится как есть.
func (v *Dashboard) Render(ctx context.Context) error {
	const op = "views.Dashboard.Render"

	var (
		wg       sync.WaitGroup
		branches []models.Branch
		books    []models.Book
		berr     error
		kerr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		branches, berr = v.api.ListBranches(ctx)
	}()
	go func() {
		defer wg.Done()
		books, kerr = v.api.SearchCatalog(ctx, "")
	}()
	wg.Wait()

	fmt.Fprintln(v.out, styleHeader.Render("Library network"))

	if berr != nil {
		fmt.Fprintln(v.out, fetchFailureLine(berr, "branch directory"))
	} else {
		fmt.Fprintf(v.out, "Branches: %d\n", len(branches))
	}

	if kerr != nil {
		fmt.Fprintln(v.out, fetchFailureLine(kerr, "catalog"))
	} else {
		fmt.Fprintf(v.out, "Titles:   %d\n", len(books))
	}

	if berr == nil {
		pill := stylePillDegraded.Render("Degraded")
		if len(branches) > 0 {
			pill = stylePillOnline.Render("Healthy")
		}
		fmt.Fprintf(v.out, "Network:  %s\n", pill)

		if len(branches) > 0 {
			fmt.Fprintln(v.out)
			for i, b := range branches {
				if i == previewBranches {
					break
				}

				name := b.Name
				if name == "" {
					name = b.Code
				}

				status := models.StatusOffline
				if b.IsActive {
					status = models.StatusOnline
				}

				fmt.Fprintf(v.out, "  %-28s %s\n", truncate(name, 28), statusPill(status))
			}

			if len(branches) > previewBranches {
				fmt.Fprintf(v.out, "  ... and %d more (see `library-console branches`)\n",
					len(branches)-previewBranches)
			}
		}
	}

	fmt.Fprintln(v.out)
	if sess, err := v.store.Load(); err == nil {
		fmt.Fprintf(v.out, "Signed in as %s. You can search and borrow books.\n", sess.UserID)
	} else {
		fmt.Fprintln(v.out, "Not signed in. Run `library-console login <library-id>` to borrow books.")
	}

	if berr != nil {
		return fmt.Errorf("%s: %w", op, berr)
	}
	if kerr != nil {
		return fmt.Errorf("%s: %w", op, kerr)
	}

	return nil
}
