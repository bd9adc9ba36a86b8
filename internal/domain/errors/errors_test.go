package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

// TestIsTerminal: только терминальные исходы можно кешировать; contention
// и in-flight транзиентны.
func TestIsTerminal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"validation", ValidationError{Field: "amount", Message: "bad"}, true},
		{"insufficient funds", ErrInsufficientFunds, true},
		{"user not found", ErrUserNotFound, true},
		{"wallet not found", ErrWalletNotFound, true},
		{"self transfer", ErrSelfTransfer, true},
		{"invalid type", ErrInvalidTransactionType, true},
		{"wrapped insufficient funds", fmt.Errorf("transfer: %w", ErrInsufficientFunds), true},
		{"contention", NewContentionError(3, stderrors.New("deadlock")), false},
		{"in flight", NewInFlightError("key-1"), false},
		{"corruption", NewCorruptionError("Wallet", "w-1", "negative"), false},
		{"plain error", stderrors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTerminal(tt.err); got != tt.want {
				t.Errorf("IsTerminal(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestPredicates: предикаты работают и через обёртки fmt.Errorf.
func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("usecase: %w", NewContentionError(3, stderrors.New("lock timeout")))
	if !IsContention(wrapped) {
		t.Error("IsContention must see through wrapping")
	}

	if !IsInFlight(fmt.Errorf("x: %w", NewInFlightError("k"))) {
		t.Error("IsInFlight must see through wrapping")
	}

	if !IsNotFound(fmt.Errorf("x: %w", ErrEntityNotFound)) {
		t.Error("IsNotFound must see through wrapping")
	}

	if IsNotFound(ErrDuplicateTransaction) {
		t.Error("duplicate transaction is not a not-found condition")
	}
}

// TestDomainError: код переживает обёртывание и доступен через As.
func TestDomainError(t *testing.T) {
	inner := stderrors.New("root cause")
	de := NewDomainError("INSUFFICIENT_FUNDS", "not enough gold", inner)

	if !stderrors.Is(de, inner) {
		t.Error("DomainError must unwrap to its cause")
	}

	var got *DomainError
	if !As(fmt.Errorf("handler: %w", de), &got) {
		t.Fatal("As must extract *DomainError through wrapping")
	}
	if got.Code != "INSUFFICIENT_FUNDS" {
		t.Errorf("Code = %s, want INSUFFICIENT_FUNDS", got.Code)
	}
}

// TestContentionError_Message: сообщение несёт число попыток.
func TestContentionError_Message(t *testing.T) {
	err := NewContentionError(3, stderrors.New("deadlock detected"))
	want := "storage contention after 3 attempts: deadlock detected"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
