package dtos

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/walletd/internal/domain/entities"
	"github.com/gamevault/walletd/internal/domain/valueobjects"
)

// TestNewPageDTO: hasMore = offset + returned < total.
func TestNewPageDTO(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		offset      int
		limit       int
		returned    int
		wantHasMore bool
	}{
		{"first of many", 10, 0, 3, 3, true},
		{"middle", 10, 3, 3, 3, true},
		{"last full page", 10, 7, 3, 3, false},
		{"last partial page", 10, 9, 3, 1, false},
		{"empty result", 0, 0, 20, 0, false},
		{"offset past the end", 5, 10, 20, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewPageDTO(tt.total, tt.offset, tt.limit, tt.returned)
			if page.HasMore != tt.wantHasMore {
				t.Errorf("HasMore = %v, want %v", page.HasMore, tt.wantHasMore)
			}
			if page.Total != tt.total || page.Offset != tt.offset || page.Limit != tt.limit {
				t.Errorf("page echo = %+v", page)
			}
		})
	}
}

// TestToTransactionDTO: суммы сериализуются с фиксированной точностью.
func TestToTransactionDTO(t *testing.T) {
	tx := entities.ReconstructTransaction(
		uuid.New(), "key-1", uuid.New(), uuid.New(),
		valueobjects.MustAmount("100.5"),
		entities.TransactionTypeTopUp,
		entities.TransactionStatusSuccess,
		time.Now(),
	)

	dto := ToTransactionDTO(tx)
	if dto.Amount != "100.5000" {
		t.Errorf("Amount = %s, want 100.5000", dto.Amount)
	}
	if dto.Type != "TOP_UP" || dto.Status != "SUCCESS" {
		t.Errorf("dto = %+v", dto)
	}
	if dto.ID != tx.ID().String() || dto.IdempotencyKey != "key-1" {
		t.Errorf("identity fields lost: %+v", dto)
	}
}

// TestToLedgerEntryDTOList: пустой вход даёт пустой, не nil, список.
func TestToLedgerEntryDTOList(t *testing.T) {
	if got := ToLedgerEntryDTOList(nil); got == nil || len(got) != 0 {
		t.Errorf("ToLedgerEntryDTOList(nil) = %v, want empty slice", got)
	}

	entry := entities.NewLedgerEntry(
		uuid.New(), uuid.New(), entities.EntryTypeCredit,
		valueobjects.MustAmount("10"), valueobjects.MustAmount("110"),
	)
	got := ToLedgerEntryDTOList([]*entities.LedgerEntry{entry})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].BalanceAfter != "110.0000" || got[0].Type != "CREDIT" {
		t.Errorf("dto = %+v", got[0])
	}
}
