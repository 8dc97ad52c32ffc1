// Данный файл должен быть сгенерирован из openapi спецификации и называться types.gen.go
package rest

import "time"

// Branding Настройки оформления дисплея
type Branding struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	AccentColor     string `json:"accentColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty"`
}

// Event Аукционное событие
type Event struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Subtitle           string    `json:"subtitle,omitempty"`
	Branding           Branding  `json:"branding,omitempty"`
	HideWatermark      bool      `json:"hideWatermark"`
	AllowPublicBidding bool      `json:"allowPublicBidding"`
	SilentMode         bool      `json:"silentMode"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Item Лот аукциона
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartingBid float64   `json:"startingBid"`
	CurrentBid  float64   `json:"currentBid"`
	IsHidden    bool      `json:"isHidden"`
	IsRevealed  bool      `json:"isRevealed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Snapshot Готовое к отображению состояние дисплея
type Snapshot struct {
	Event       Event     `json:"event"`
	Items       []Item    `json:"items"`
	TotalRaised float64   `json:"totalRaised"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateEventRequest struct {
	Name     string `json:"name" validate:"required"`
	Subtitle string `json:"subtitle"`
}

type UpdateSettingsRequest struct {
	Name               *string   `json:"name,omitempty"`
	Subtitle           *string   `json:"subtitle,omitempty"`
	Branding           *Branding `json:"branding,omitempty"`
	HideWatermark      *bool     `json:"hideWatermark,omitempty"`
	AllowPublicBidding *bool     `json:"allowPublicBidding,omitempty"`
	SilentMode         *bool     `json:"silentMode,omitempty"`
}

type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	StartingBid float64 `json:"startingBid" validate:"gte=0"`
}

type UpdateBidRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}

type SetHiddenRequest struct {
	Hidden bool `json:"hidden"`
}

// StorageStatus Состояние хранилища и офлайн-очереди
type StorageStatus struct {
	Online      bool   `json:"online"`
	Mode        string `json:"mode"`
	QueueLength int    `json:"queueLength"`
}

type QueueEntry struct {
	Action   string    `json:"action"`
	EventID  string    `json:"eventId"`
	QueuedAt time.Time `json:"queuedAt"`
	Retries  int       `json:"retries"`
}

type QueueStatusResponse struct {
	Online  bool         `json:"online"`
	Entries []QueueEntry `json:"entries"`
}

type ActiveDisplayResponse struct {
	EventID string `json:"eventId"`
}

type VerifyCheckoutRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

type VerifyCheckoutResponse struct {
	Tier string `json:"tier"`
}

// Error Модель ошибок
type Error struct {
	// Code Код ошибки
	Code ErrorCode `json:"code"`

	// Message Сообщение об ошибке (для отображения в UI в будущем)
	Message string `json:"message"`
}

// ErrorCode Код ошибки
type ErrorCode string
