// client — HTTP-клиент центрального сервиса библиотечной сети.
//
// Все операции одноразовые: без ретраев, без кэша, без фоновых обновлений.
// Сервер — единственный источник истины; клиент только читает и пишет
// по одному запросу за операцию. Каждый запрос несёт X-Request-Id для
// трассировки на стороне сервера.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-library-console/internal/config"
	"github.com/pribylovaa/go-library-console/internal/models"
	"github.com/pribylovaa/go-library-console/internal/pkg/log"
)

// Client — клиент REST API центрального сервиса.
// Экземпляр безопасен для конкурентного использования.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New создаёт клиент с таймаутом из конфигурации.
func New(cfg config.CentralConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

// Login обменивает библиотечный ID на bearer-токен.
// Пустой ID отклоняется до обращения к сети.
func (c *Client) Login(ctx context.Context, externalID string) (models.LoginResult, error) {
	const op = "client.Login"

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return models.LoginResult{}, fmt.Errorf("%s: %w", op, ErrEmptyUserID)
	}

	in := struct {
		UserExternalID string `json:"user_external_id"`
	}{UserExternalID: externalID}

	var out models.LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", nil, "", in, &out); err != nil {
		return models.LoginResult{}, fmt.Errorf("%s: %w", op, asLoginErr(err))
	}

	if out.AccessToken == "" {
		return models.LoginResult{}, fmt.Errorf("%s: %w", op, ErrBadResponse)
	}

	return out, nil
}

// SearchCatalog возвращает книги глобального каталога с доступностью по
// филиалам. Пустой query означает "все книги" — параметр не передаётся.
func (c *Client) SearchCatalog(ctx context.Context, query string) ([]models.Book, error) {
	const op = "client.SearchCatalog"

	var params url.Values
	if query = strings.TrimSpace(query); query != "" {
		params = url.Values{"query": []string{query}}
	}

	var out []models.Book
	if err := c.doJSON(ctx, http.MethodGet, "/api/global/books", params, "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Borrow оформляет займ ISBN в филиале от имени владельца токена.
// Идемпотентность не гарантируется: повторная попытка после отказа
// безопасна, но решает сервер (лимиты займов и т.п.).
func (c *Client) Borrow(ctx context.Context, token, isbn, branchCode string) (models.BorrowResult, error) {
	const op = "client.Borrow"

	in := struct {
		ISBN       string `json:"isbn"`
		BranchCode string `json:"branch_code"`
	}{ISBN: isbn, BranchCode: branchCode}

	var out models.BorrowResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/borrow", nil, token, in, &out); err != nil {
		return models.BorrowResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListBranches возвращает справочник филиалов.
func (c *Client) ListBranches(ctx context.Context) ([]models.Branch, error) {
	const op = "client.ListBranches"

	var out []models.Branch
	if err := c.doJSON(ctx, http.MethodGet, "/api/branches", nil, "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListUserLoans возвращает займы читателя по всем филиалам.
func (c *Client) ListUserLoans(ctx context.Context, userID string) ([]models.Loan, error) {
	const op = "client.ListUserLoans"

	var out []models.Loan
	path := "/api/user_loans/" + url.PathEscape(userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, "", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// errorBody — тело прикладной ошибки центрального сервиса.
type errorBody struct {
	Error string `json:"error"`
}

// doJSON — один запрос: сборка, классификация отказа, разбор ответа.
//
// Возвращает:
//   - ErrUnavailable — транспортный отказ;
//   - *APIError — non-2xx (Kind по статусу, Message из тела, если было);
//   - ErrBadResponse — 2xx с нечитаемым JSON.
func (c *Client) doJSON(ctx context.Context, method, path string, params url.Values, token string, in, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}

		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		log.From(ctx).Warn("central_unreachable",
			slog.String("method", method),
			slog.String("url", u),
			slog.String("err", err.Error()),
		)
		return ErrUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrUnavailable
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &APIError{Kind: kindFromStatus(resp.StatusCode), StatusCode: resp.StatusCode}

		var eb errorBody
		if jerr := json.Unmarshal(raw, &eb); jerr == nil {
			ae.Message = eb.Error
		}

		return ae
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
	}

	return nil
}

// kindFromStatus — базовый маппинг HTTP-статуса на сентинел.
func kindFromStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrRejected
	}
}

// asLoginErr перекрашивает прикладной отказ логина в ErrInvalidCredentials,
// сохраняя серверный текст. Транспортные отказы проходят как есть.
func asLoginErr(err error) error {
	var ae *APIError
	if !errors.As(err, &ae) {
		return err
	}

	return &APIError{
		Kind:       ErrInvalidCredentials,
		StatusCode: ae.StatusCode,
		Message:    ae.Message,
	}
}
