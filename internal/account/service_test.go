package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
	"github.com/gkash/gkash_api/internal/logging"
)

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"balanced_fund":      KindBalancedFund,
		"Money Market Fund":  KindMoneyMarketFund,
		" fixed-income-fund": KindFixedIncomeFund,
		"STOCK MARKET":       KindStockMarket,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseKind("crypto"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceCreateListGet(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())
	ctx := context.Background()
	ownerID := uuid.NewString()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := svc.Create(ctx, ownerID, "balanced fund")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !first.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", first.Balance)
	}
	second, err := svc.Create(ctx, ownerID, "stock_market")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, uuid.NewString(), "stock_market"); err != nil {
		t.Fatalf("create other owner: %v", err)
	}

	accounts, err := svc.List(ctx, ownerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != second.ID || accounts[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", accounts)
	}

	fetched, err := svc.Get(ctx, ownerID, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Kind != KindBalancedFund {
		t.Fatalf("expected balanced_fund, got %s", fetched.Kind)
	}
	if _, err := svc.Get(ctx, uuid.NewString(), first.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign owner must not see the account, got %v", err)
	}
}

func TestServiceDelete(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())
	ctx := context.Background()
	ownerID := uuid.NewString()

	acct, err := svc.Create(ctx, ownerID, "money_market_fund")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.SeedBalance(acct.ID, decimal.NewFromInt(50))

	if err := svc.Delete(ctx, ownerID, acct.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected non-empty account to stay open, got %v", err)
	}
	repo.SeedBalance(acct.ID, decimal.Zero)
	if err := svc.Delete(ctx, uuid.NewString(), acct.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for foreign owner, got %v", err)
	}
	if err := svc.Delete(ctx, ownerID, acct.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, ownerID, acct.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected deleted account to be gone, got %v", err)
	}
}

func TestAdjustBalance(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())
	ctx := context.Background()
	ownerID := uuid.NewString()
	acct, _ := svc.Create(ctx, ownerID, "balanced_fund")

	committed := 0
	commit := func(decimal.Decimal) error { committed++; return nil }

	bal, err := repo.AdjustBalance(ctx, acct.ID, ownerID, decimal.NewFromInt(100), commit)
	if err != nil || !bal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("deposit: bal=%s err=%v", bal, err)
	}
	if _, err := repo.AdjustBalance(ctx, acct.ID, ownerID, decimal.NewFromInt(-150), commit); !errors.Is(err, apperr.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	failing := func(decimal.Decimal) error { return errors.New("log unavailable") }
	if _, err := repo.AdjustBalance(ctx, acct.ID, ownerID, decimal.NewFromInt(10), failing); err == nil {
		t.Fatalf("expected commit failure to surface")
	}
	if committed != 1 {
		t.Fatalf("expected one committed adjustment, got %d", committed)
	}
	fetched, _ := svc.Get(ctx, ownerID, acct.ID)
	if !fetched.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("failed adjustments must leave balance untouched, got %s", fetched.Balance)
	}
}
