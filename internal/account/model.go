package account

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gkash/gkash_api/internal/apperr"
)

// Kind is an investment product an account is opened for.
type Kind string

const (
	KindBalancedFund    Kind = "balanced_fund"
	KindFixedIncomeFund Kind = "fixed_income_fund"
	KindMoneyMarketFund Kind = "money_market_fund"
	KindStockMarket     Kind = "stock_market"
)

// Kinds lists every product in display order.
var Kinds = []Kind{KindBalancedFund, KindFixedIncomeFund, KindMoneyMarketFund, KindStockMarket}

// ParseKind accepts a product name in any case, with spaces or hyphens
// between words ("Money Market Fund", "money-market-fund").
func ParseKind(raw string) (Kind, error) {
	normalised := strings.ToLower(strings.TrimSpace(raw))
	normalised = strings.Join(strings.FieldsFunc(normalised, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
	for _, k := range Kinds {
		if string(k) == normalised {
			return k, nil
		}
	}
	return "", apperr.Validation("account_type must be one of balanced_fund, fixed_income_fund, money_market_fund, stock_market")
}

// MaxBalance is the exclusive upper bound of any stored balance or amount,
// the range of a NUMERIC(20,2) column.
var MaxBalance = decimal.New(1, 18)

// Account is a balance bucket owned by an identity. Balance only changes
// through the transaction processor.
type Account struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	Kind      Kind            `json:"account_type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}
