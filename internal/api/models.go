package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sheepify-api/internal/domain"
	"github.com/phrazzld/sheepify-api/internal/leaderboard"
)

// Account details such as username format and password length are checked by
// the domain; the tags below only reject structurally incomplete payloads.

// RegisterRequest defines the payload for the registration endpoint.
type RegisterRequest struct {
	Username string `json:"username"  validate:"required"`
	Password string `json:"password"  validate:"required"`
	FarmName string `json:"farm_name" validate:"required"`
	Timezone string `json:"timezone"  validate:"omitempty,max=64"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	AccountID uuid.UUID       `json:"account_id"`
	Token     string          `json:"token"`
	Account   *domain.Account `json:"account"`
}

// StartSessionRequest defines the payload for starting a sleep session. An
// omitted start_time means now.
type StartSessionRequest struct {
	StartTime       *time.Time `json:"start_time"`
	PlannedWakeTime *time.Time `json:"planned_wake_time"`
}

// CompleteSessionRequest defines the payload for completing a sleep session.
// An omitted end_time means now.
type CompleteSessionRequest struct {
	EndTime *time.Time `json:"end_time"`
	Notes   string     `json:"notes"    validate:"max=500"`
}

// SessionListResponse is a page of sessions, newest first.
type SessionListResponse struct {
	Sessions []domain.Session `json:"sessions"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// TransactionsResponse lists ledger entries, newest first.
type TransactionsResponse struct {
	Transactions []domain.LedgerEntry `json:"transactions"`
}

// PurchaseRequest defines the payload for spending currency on a shop item.
type PurchaseRequest struct {
	ItemID string `json:"item_id" validate:"required,max=100"`
	Amount int64  `json:"amount"  validate:"required,gt=0"`
}

// PurchaseResponse carries the balance left after a purchase.
type PurchaseResponse struct {
	ItemID  string `json:"item_id"`
	Balance int64  `json:"balance"`
}

// CollectiblesResponse lists an account's collectibles, oldest first.
type CollectiblesResponse struct {
	Collectibles []domain.Collectible `json:"collectibles"`
}

// UpdateCollectibleRequest defines the payload for renaming a collectible or
// changing its favorite flag. Omitted fields are left untouched.
type UpdateCollectibleRequest struct {
	CustomName *string `json:"custom_name" validate:"omitempty,max=50"`
	IsFavorite *bool   `json:"is_favorite"`
}

// LeaderboardResponse is the current week's ranking.
type LeaderboardResponse struct {
	Week    string              `json:"week"`
	Entries []leaderboard.Entry `json:"entries"`
}
