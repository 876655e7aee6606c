package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account validation errors
var (
	ErrEmptyAccountID      = errors.New("account ID cannot be empty")
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrInvalidUsername     = errors.New("username must be 3-50 letters, digits, '.', '-' or '_'")
	ErrEmptyFarmName       = errors.New("farm name cannot be empty")
	ErrFarmNameTooLong     = errors.New("farm name must be at most 100 characters long")
	ErrNegativeBalance     = errors.New("balance cannot be negative")
	ErrInvalidTimezone     = errors.New("unknown timezone")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

const (
	// MaxFarmNameLength is the longest farm name an account may carry.
	MaxFarmNameLength = 100

	minUsernameLength = 3
	maxUsernameLength = 50

	// bcrypt ignores everything past 72 bytes.
	minPasswordLength = 8
	maxPasswordLength = 72

	defaultSleepGoalHrs = 8.0
	defaultTimezone     = "UTC"
)

// Account is a player's persistent identity. It owns the currency balance,
// the sleep history and the collectible inventory.
//
// Balance is only ever changed through ledger entries; the stored value is a
// cache of the latest entry's balance_after.
type Account struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Password       string    `json:"-"` // Plaintext, only set between registration and hashing
	HashedPassword string    `json:"-"`
	FarmName       string    `json:"farm_name"`
	Balance        int64     `json:"balance"`
	SleepGoalHours float64   `json:"sleep_goal_hours"`
	Timezone       string    `json:"timezone"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewAccount creates a new Account with a zero balance. The plaintext password
// is validated here; the caller must hash it before the account is stored.
// An empty timezone defaults to UTC.
func NewAccount(username, password, farmName, timezone string) (*Account, error) {
	now := time.Now().UTC()

	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		timezone = defaultTimezone
	}

	account := &Account{
		ID:             uuid.New(),
		Username:       strings.TrimSpace(username),
		Password:       password,
		FarmName:       strings.TrimSpace(farmName),
		Balance:        0,
		SleepGoalHours: defaultSleepGoalHrs,
		Timezone:       timezone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// Validate checks if the Account has valid data.
func (a *Account) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAccountID
	}

	if a.Username == "" {
		return ErrEmptyUsername
	}

	if !validUsername(a.Username) {
		return ErrInvalidUsername
	}

	if a.FarmName == "" {
		return ErrEmptyFarmName
	}

	if len(a.FarmName) > MaxFarmNameLength {
		return ErrFarmNameTooLong
	}

	if a.Balance < 0 {
		return ErrNegativeBalance
	}

	if a.Timezone != "" {
		if _, err := time.LoadLocation(a.Timezone); err != nil {
			return ErrInvalidTimezone
		}
	}

	// A plaintext password is only present during registration. Stored
	// accounts must carry a hash instead.
	if a.Password != "" {
		return ValidatePassword(a.Password)
	}
	if a.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}

	return nil
}

// ValidatePassword checks a plaintext password's length.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// Location resolves the account's timezone, falling back to UTC when the
// stored name is empty or unknown.
func (a *Account) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validUsername(username string) bool {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return false
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
