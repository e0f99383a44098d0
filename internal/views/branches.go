package views

import (
	"context"
	"fmt"
	"io"

	"github.com/pribylovaa/go-library-console/internal/health"
	"github.com/pribylovaa/go-library-console/internal/models"
)

// DirectoryAPI — справочник филиалов.
type DirectoryAPI interface {
	ListBranches(ctx context.Context) ([]models.Branch, error)
}

// Branches — вью статусов филиалов.
type Branches struct {
	api    DirectoryAPI
	prober *health.Prober
	out    io.Writer
}

func NewBranches(api DirectoryAPI, prober *health.Prober, out io.Writer) *Branches {
	return &Branches{api: api, prober: prober, out: out}
}

// Render печатает таблицу филиалов со статусами.
//
// Статус по умолчанию берётся из серверного флага is_active, затем
// перекрывается живой пробой health-эндпоинта самого филиала. Пробы идут
// конкурентно; отказ одной не задерживает и не искажает остальные строки.
func (v *Branches) Render(ctx context.Context) error {
	const op = "views.Branches.Render"

	branches, err := v.api.ListBranches(ctx)
	if err != nil {
		fmt.Fprintln(v.out, fetchFailureLine(err, "branch directory"))
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(branches) == 0 {
		fmt.Fprintln(v.out, "No branches registered yet.")
		return nil
	}

	statuses := make([]models.BranchStatus, len(branches))
	for i, b := range branches {
		if b.IsActive {
			statuses[i] = models.StatusOnline
		} else {
			statuses[i] = models.StatusOffline
		}
	}

	for res := range v.prober.ProbeAll(ctx, branches) {
		statuses[res.Index] = res.Status
	}

	fmt.Fprintln(v.out, styleHeader.Render(fmt.Sprintf("%-8s %-28s %-32s %s", "Code", "Name", "Base URL", "Status")))
	for i, b := range branches {
		fmt.Fprintf(v.out, "%-8s %-28s %-32s %s\n",
			b.Code, truncate(b.Name, 28), truncate(b.BaseURL, 32), statusPill(statuses[i]))
	}

	fmt.Fprintf(v.out, "Loaded %d branch(es).\n", len(branches))

	return nil
}
