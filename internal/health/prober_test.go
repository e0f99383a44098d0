package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-library-console/internal/config"
	"github.com/pribylovaa/go-library-console/internal/models"
)

func newProber(t *testing.T) *Prober {
	t.Helper()
	return New(config.HealthConfig{Timeout: 2 * time.Second, MaxConcurrent: 4})
}

// serve — тестовый филиал с заданным обработчиком /api/health.
func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestProbe_Classification(t *testing.T) {
	t.Parallel()

	ok := serve(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	})
	failing := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	weird := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"booting"}`))
	})
	garbage := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json at all"))
	})

	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()

	p := newProber(t)
	ctx := context.Background()

	require.Equal(t, models.StatusOnline, p.Probe(ctx, ok.URL))
	// Завершающий слэш не ломает путь пробы.
	require.Equal(t, models.StatusOnline, p.Probe(ctx, ok.URL+"/"))
	require.Equal(t, models.StatusDegraded, p.Probe(ctx, failing.URL))
	require.Equal(t, models.StatusDegraded, p.Probe(ctx, weird.URL))
	require.Equal(t, models.StatusDegraded, p.Probe(ctx, garbage.URL))
	require.Equal(t, models.StatusOffline, p.Probe(ctx, dead.URL))
}

// Изоляция отказов: мёртвый филиал в середине списка не искажает статусы
// соседей и не блокирует их строки.
func TestProbeAll_FailureIsolation(t *testing.T) {
	t.Parallel()

	ok := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	degraded := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()

	branches := []models.Branch{
		{Code: "CTR", BaseURL: ok.URL},
		{Code: "WST", BaseURL: dead.URL},
		{Code: "EST", BaseURL: degraded.URL},
	}

	got := make(map[string]models.BranchStatus, len(branches))
	byIndex := make(map[int]string, len(branches))
	for res := range newProber(t).ProbeAll(context.Background(), branches) {
		got[res.Code] = res.Status
		byIndex[res.Index] = res.Code
	}

	require.Len(t, got, 3)
	require.Equal(t, models.StatusOnline, got["CTR"])
	require.Equal(t, models.StatusOffline, got["WST"])
	require.Equal(t, models.StatusDegraded, got["EST"])

	// Index указывает на позицию в справочнике, а не на порядок готовности.
	require.Equal(t, "CTR", byIndex[0])
	require.Equal(t, "WST", byIndex[1])
	require.Equal(t, "EST", byIndex[2])
}

// Отмена контекста посреди фан-аута завершает ProbeAll чисто: канал
// закрывается после последнего воркера, новые пробы не стартуют, паники нет.
func TestProbeAll_CancelMidFanout_ClosesCleanly(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	hang := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.Write([]byte(`{"status":"ok"}`))
	})
	t.Cleanup(func() { close(release) })

	p := New(config.HealthConfig{Timeout: 10 * time.Second, MaxConcurrent: 1})
	branches := []models.Branch{
		{Code: "A", BaseURL: hang.URL},
		{Code: "B", BaseURL: hang.URL},
		{Code: "C", BaseURL: hang.URL},
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := p.ProbeAll(ctx, branches)

	// Первая проба запущена и висит на сервере; цикл запуска ждёт семафор.
	time.Sleep(50 * time.Millisecond)
	cancel()

	// Оборванные пробы дают offline, затем канал обязан закрыться;
	// до всех трёх филиалов фан-аут дойти не успевает.
	deadline := time.After(3 * time.Second)
	got := 0
	for {
		select {
		case res, ok := <-out:
			if !ok {
				require.Less(t, got, len(branches))
				return
			}
			require.Equal(t, models.StatusOffline, res.Status)
			got++
		case <-deadline:
			t.Fatal("ProbeAll did not close the result channel after cancellation")
		}
	}
}

// Конкурентность ограничена, но все филиалы в итоге опрошены.
func TestProbeAll_ManyBranches_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	ok := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	p := New(config.HealthConfig{Timeout: 2 * time.Second, MaxConcurrent: 2})

	var branches []models.Branch
	for i := 0; i < 9; i++ {
		branches = append(branches, models.Branch{Code: "B", BaseURL: ok.URL})
	}

	count := 0
	for res := range p.ProbeAll(context.Background(), branches) {
		require.Equal(t, models.StatusOnline, res.Status)
		count++
	}
	require.Equal(t, 9, count)
}
