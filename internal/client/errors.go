package client

import "errors"

// Ошибки клиента разделены на транспортные и прикладные: вью формулируют
// их по-разному ("проверьте, что сервис запущен" против "сервер отклонил
// запрос"). Каждая ветка отказа обязана дойти до пользователя осмысленным
// сообщением, а не необработанной ошибкой.
var (
	// ErrUnavailable — транспортный отказ: DNS, соединение, таймаут.
	// Вью: "could not reach the central service".
	ErrUnavailable = errors.New("central service unavailable")

	// ErrBadResponse — 2xx с телом, которое не разбирается как ожидаемый JSON.
	// Трактуется как отказ, не как пустой результат.
	ErrBadResponse = errors.New("malformed response from central service")

	// ErrUnauthorized — 401/403: токен отсутствует, просрочен или отозван.
	// Вью: подсказка про повторный login.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict — 409: у филиала не осталось экземпляров.
	ErrConflict = errors.New("no copies available")

	// ErrNotFound — 404 вне логина (неизвестный ISBN/филиал).
	ErrNotFound = errors.New("not found")

	// ErrRejected — прочий non-2xx со структурированным телом ошибки.
	ErrRejected = errors.New("request rejected")

	// ErrInvalidCredentials — отказ логина (неизвестный библиотечный ID).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmptyUserID — пустой библиотечный ID; определяется до сети.
	ErrEmptyUserID = errors.New("empty library id")
)

// APIError — прикладная ошибка центрального сервиса: non-2xx с телом
// {"error": "..."}. Kind — сентинел для errors.Is, Message — текст сервера
// (может быть пустым, тогда вью подставляет общий fallback).
type APIError struct {
	Kind       error
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return e.Kind.Error()
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// UserMessage достаёт серверный текст ошибки, если он есть.
// Возвращает "" для транспортных и прочих ошибок без тела.
func UserMessage(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Message
	}

	return ""
}
