// health — прямые пробы /api/health филиалов, минуя центральный сервис.
//
// Проба никогда не возвращает ошибку: её результат — и есть статус.
// Классификация:
//   - сетевой отказ -> offline;
//   - non-2xx -> degraded;
//   - 2xx и тело {"status":"ok"} -> online;
//   - 2xx с любым другим или нечитаемым телом -> degraded.
package health

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/go-library-console/internal/config"
	"github.com/pribylovaa/go-library-console/internal/models"
	"github.com/pribylovaa/go-library-console/internal/pkg/log"
)

// Prober опрашивает health-эндпоинты филиалов.
// Параллелизм ограничен семафором maxConc; HTTP-клиент настраивается извне.
type Prober struct {
	httpc   *http.Client
	maxConc int
}

// New создаёт пробер с таймаутом и лимитом конкурентности из конфигурации.
func New(cfg config.HealthConfig) *Prober {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	maxConc := cfg.MaxConcurrent
	if maxConc <= 0 {
		maxConc = 4
	}

	return &Prober{
		httpc:   &http.Client{Timeout: timeout},
		maxConc: maxConc,
	}
}

// Result — итог пробы одного филиала.
// Index — позиция филиала во входном срезе: порядок строк в выводе задаёт
// справочник, а не скорость ответов.
type Result struct {
	Index  int
	Code   string
	Status models.BranchStatus
}

// Probe опрашивает один филиал.
func (p *Prober) Probe(ctx context.Context, baseURL string) models.BranchStatus {
	const op = "health.Probe"

	u := strings.TrimRight(baseURL, "/") + "/api/health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.StatusOffline
	}

	resp, err := p.httpc.Do(req)
	if err != nil {
		log.From(ctx).Debug("branch_probe_failed",
			slog.String("op", op),
			slog.String("url", u),
			slog.String("err", err.Error()),
		)
		return models.StatusOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return models.StatusDegraded
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.StatusDegraded
	}

	if body.Status != "ok" {
		return models.StatusDegraded
	}

	return models.StatusOnline
}

// ProbeAll опрашивает филиалы конкурентно и отдаёт результаты в канал по
// мере готовности. Канал закрывается после завершения всех запущенных проб,
// в том числе при отмене контекста: close строго после последнего воркера.
//
// Изоляция отказов: каждый филиал получает статус только своей пробы;
// зависший или упавший сосед не задерживает и не искажает остальных.
func (p *Prober) ProbeAll(ctx context.Context, branches []models.Branch) <-chan Result {
	output := make(chan Result)

	go func() {
		defer close(output)

		sem := make(chan struct{}, p.maxConc)

	launch:
		for i, b := range branches {
			select {
			case <-ctx.Done():
				break launch
			case sem <- struct{}{}:
			}

			idx, branch := i, b

			go func() {
				defer func() {
					<-sem
				}()

				res := Result{
					Index:  idx,
					Code:   branch.Code,
					Status: p.Probe(ctx, branch.BaseURL),
				}

				select {
				case output <- res:
				case <-ctx.Done():
					// Потребитель мог уйти вместе с контекстом.
				}
			}()
		}

		for i := 0; i < cap(sem); i++ {
			sem <- struct{}{}
		}
	}()

	return output
}
