// models содержит доменные сущности консоли.
// Это wire-формат центрального сервиса: JSON-теги совпадают с его ответами.
// Все сущности, кроме Session, живут один рендер и не переживают команду.
package models

import "time"

// Session — bearer-токен и идентификатор читателя.
//
// Инвариант: поля задаются вместе или отсутствуют вместе. Частичная запись
// (токен без идентификатора и наоборот) везде трактуется как отсутствие
// сессии — см. session.Store.
type Session struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
}

// Valid сообщает, пригодна ли сессия для авторизованных запросов.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.UserID != ""
}

// Branch — филиал из справочника центрального сервиса.
// С точки зрения клиента неизменяем.
type Branch struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	IsActive bool   `json:"is_active"`
}

// BranchStatus — отображаемый статус филиала.
// Вычисляется живой health-пробой на каждый запуск и нигде не сохраняется.
type BranchStatus int

const (
	StatusOffline BranchStatus = iota
	StatusDegraded
	StatusOnline
)

func (s BranchStatus) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusDegraded:
		return "degraded"
	default:
		return "offline"
	}
}

// Availability — доступность одного ISBN в одном филиале.
type Availability struct {
	BranchCode      string `json:"branch_code"`
	TotalCopies     int    `json:"total_copies"`
	AvailableCopies int    `json:"available_copies"`
}

// Book — запись глобального каталога с доступностью по филиалам.
// Publisher и Year центральный сервис может не знать (nullable у источника).
type Book struct {
	ISBN      string         `json:"isbn"`
	Title     string         `json:"title"`
	Author    string         `json:"author"`
	Publisher string         `json:"publisher"`
	Year      int            `json:"year"`
	Branches  []Availability `json:"branches"`
}

// Loan — займ читателя в одном из филиалов.
type Loan struct {
	LoanID     int64      `json:"loan_id"`
	Branch     string     `json:"branch"`
	ISBN       string     `json:"isbn"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at"`
}

// BorrowResult — подтверждение займа. Потребляется сразу: обновить бейдж
// и показать срок возврата.
type BorrowResult struct {
	LoanID int64     `json:"loan_id"`
	Branch string    `json:"branch"`
	DueAt  time.Time `json:"due_at"`
}

// LoginUser — сведения о читателе в ответе логина.
type LoginUser struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	HomeBranch string `json:"home_branch"`
}

// LoginResult — успешный ответ POST /api/login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	User        LoginUser `json:"user"`
}
