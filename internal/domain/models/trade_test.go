package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validTrade() Trade {
	return Trade{
		Seq:         1,
		TradeID:     "TRD-0001",
		Symbol:      "AAPL",
		Side:        SideSell,
		Quantity:    50,
		Price:       decimal.RequireFromString("185.00"),
		ExecutionTS: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		AccountID:   "ACCT-001",
		Venue:       "NASDAQ",
		TraderID:    "TRD-A1",
		OrderID:     "ORD-0001",
	}
}

func TestTradeValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Trade)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Trade) {}},
		{name: "missing trade id", mutate: func(tr *Trade) { tr.TradeID = "" }, wantErr: true},
		{name: "missing symbol", mutate: func(tr *Trade) { tr.Symbol = "" }, wantErr: true},
		{name: "missing account", mutate: func(tr *Trade) { tr.AccountID = "" }, wantErr: true},
		{name: "bad side", mutate: func(tr *Trade) { tr.Side = "HOLD" }, wantErr: true},
		{name: "zero quantity", mutate: func(tr *Trade) { tr.Quantity = 0 }, wantErr: true},
		{name: "negative price", mutate: func(tr *Trade) { tr.Price = decimal.RequireFromString("-1") }, wantErr: true},
		{name: "zero execution ts", mutate: func(tr *Trade) { tr.ExecutionTS = time.Time{} }, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := validTrade()
			tc.mutate(&tr)
			err := tr.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// Notional must stay exact at both ends of the price range; float arithmetic
// would drift on these.
func TestNotional(t *testing.T) {
	cases := []struct {
		name     string
		quantity int64
		price    string
		want     string
	}{
		{name: "typical", quantity: 50, price: "185.00", want: "9250.00"},
		{name: "sub-cent price", quantity: 50, price: "0.0001", want: "0.0050"},
		{name: "very large price", quantity: 7, price: "123456789.12", want: "864197523.84"},
		{name: "large price large quantity", quantity: 1000000, price: "123456789.12", want: "123456789120000.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := validTrade()
			tr.Quantity = tc.quantity
			tr.Price = decimal.RequireFromString(tc.price)
			got := tr.Notional()
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("notional = %s, want %s", got, tc.want)
			}
		})
	}
}
