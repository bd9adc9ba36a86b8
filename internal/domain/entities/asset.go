package entities

import (
	"strings"
	"time"

	"github.com/gamevault/walletd/internal/domain/errors"
	"github.com/google/uuid"
)

// Asset is a fungible virtual unit (GOLD, DIAMOND) identified by a unique
// upper-case symbol. Assets are immutable after creation.
type Asset struct {
	id        uuid.UUID
	symbol    string
	name      string
	createdAt time.Time
}

// NormalizeSymbol canonicalizes a user-supplied symbol: trimmed, upper-case.
// Symbol uniqueness is case-insensitive, so all comparisons go through this.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NewAsset creates a new asset. Symbols are 1-16 upper-case letters.
func NewAsset(symbol, name string) (*Asset, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" || len(symbol) > 16 {
		return nil, errors.ValidationError{Field: "symbol", Message: "symbol must be 1-16 characters"}
	}
	for _, c := range symbol {
		if c < 'A' || c > 'Z' {
			return nil, errors.ValidationError{Field: "symbol", Message: "symbol must contain only letters"}
		}
	}
	if strings.TrimSpace(name) == "" {
		return nil, errors.ValidationError{Field: "name", Message: "name is required"}
	}

	return &Asset{
		id:        uuid.New(),
		symbol:    symbol,
		name:      name,
		createdAt: time.Now(),
	}, nil
}

// ReconstructAsset reconstructs an Asset from stored data.
func ReconstructAsset(id uuid.UUID, symbol, name string, createdAt time.Time) *Asset {
	return &Asset{id: id, symbol: symbol, name: name, createdAt: createdAt}
}

func (a *Asset) ID() uuid.UUID        { return a.id }
func (a *Asset) Symbol() string       { return a.symbol }
func (a *Asset) Name() string         { return a.name }
func (a *Asset) CreatedAt() time.Time { return a.createdAt }
