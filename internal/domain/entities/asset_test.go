package entities

import (
	"testing"

	"github.com/gamevault/walletd/internal/domain/errors"
)

// TestNewAsset_SymbolNormalization: символ канонизируется, уникальность
// регистронезависима.
func TestNewAsset_SymbolNormalization(t *testing.T) {
	asset, err := NewAsset("  gold ", "Gold")
	if err != nil {
		t.Fatalf("NewAsset() error = %v", err)
	}
	if asset.Symbol() != "GOLD" {
		t.Errorf("Symbol() = %s, want GOLD", asset.Symbol())
	}

	if NormalizeSymbol("gOlD") != NormalizeSymbol(" GOLD ") {
		t.Error("normalization must collapse case and whitespace")
	}
}

// TestNewAsset_Validation.
func TestNewAsset_Validation(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		title  string
	}{
		{"empty symbol", "", "Gold"},
		{"too long", "ABCDEFGHIJKLMNOPQ", "Gold"},
		{"digits in symbol", "GOLD2", "Gold"},
		{"empty name", "GOLD", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAsset(tt.symbol, tt.title); !errors.IsValidation(err) {
				t.Errorf("NewAsset(%q, %q) error = %v, want validation", tt.symbol, tt.title, err)
			}
		})
	}
}

// TestNewUser_Validation.
func TestNewUser_Validation(t *testing.T) {
	user, err := NewUser(" Treasury@GameVault.io ", "Treasury")
	if err != nil {
		t.Fatalf("NewUser() error = %v", err)
	}
	if user.Email() != "treasury@gamevault.io" {
		t.Errorf("Email() = %s, emails are stored lower-case", user.Email())
	}
	if !user.IsTreasury("TREASURY@gamevault.io") {
		t.Error("IsTreasury must compare case-insensitively")
	}

	if _, err := NewUser("no-at-sign", "X"); !errors.IsValidation(err) {
		t.Error("invalid email must be rejected")
	}
	if _, err := NewUser("a@b.c", " "); !errors.IsValidation(err) {
		t.Error("empty name must be rejected")
	}
}
