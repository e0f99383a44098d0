package views

import (
	"context"
	"fmt"
	"io"

	"github.com/pribylovaa/go-library-console/internal/models"
	"github.com/pribylovaa/go-library-console/internal/session"
)

// LoansAPI — выборка займов читателя.
type LoansAPI interface {
	ListUserLoans(ctx context.Context, userID string) ([]models.Loan, error)
}

// Loans — вью займов читателя.
type Loans struct {
	api   LoansAPI
	store session.Store
	out   io.Writer
}

func NewLoans(api LoansAPI, store session.Store, out io.Writer) *Loans {
	return &Loans{api: api, store: store, out: out}
}

// Render печатает займы. Пустой userID означает "текущая сессия";
// без сессии — подсказка, без обращения к сети.
func (v *Loans) Render(ctx context.Context, userID string) error {
	const op = "views.Loans.Render"

	if userID == "" {
		sess, err := v.store.Load()
		if err != nil {
			fmt.Fprintln(v.out, "Sign in first, or pass a library ID: `library-console loans <library-id>`.")
			return nil
		}

		userID = sess.UserID
	}

	loans, err := v.api.ListUserLoans(ctx, userID)
	if err != nil {
		fmt.Fprintln(v.out, fetchFailureLine(err, "loans"))
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(loans) == 0 {
		fmt.Fprintln(v.out, "No loans found.")
		return nil
	}

	fmt.Fprintf(v.out, "Loans for %s:\n", userID)
	for _, loan := range loans {
		line := fmt.Sprintf("[%s] %s - %s (%s), due %s",
			loan.Branch, loan.ISBN, truncate(loan.Title, 40), loan.Status,
			loan.DueAt.Format("02 Jan 2006"))
		if loan.ReturnedAt != nil {
			line += fmt.Sprintf(", returned %s", loan.ReturnedAt.Format("02 Jan 2006"))
		}

		fmt.Fprintln(v.out, line)
	}

	return nil
}
