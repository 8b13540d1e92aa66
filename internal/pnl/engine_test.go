package pnl

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quantrail/pnlpulse/internal/domain/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func position(qty int64, avgCost string) *models.Position {
	p := &models.Position{Quantity: qty}
	if avgCost != "" {
		p.AvgCost = decimal.NullDecimal{Decimal: dec(avgCost), Valid: true}
	}
	return p
}

func TestCalculate_TableDriven(t *testing.T) {
	cases := []struct {
		name        string
		side        models.Side
		quantity    int64
		price       string
		pos         *models.Position
		wantPnL     string
		wantClosing bool
	}{
		{
			name: "no position known", side: models.SideSell, quantity: 100, price: "185.00",
			pos: nil, wantPnL: "0", wantClosing: false,
		},
		{
			name: "position without cost basis", side: models.SideSell, quantity: 100, price: "185.00",
			pos: position(100, ""), wantPnL: "0", wantClosing: false,
		},
		{
			name: "closing sell against long", side: models.SideSell, quantity: 100, price: "185.00",
			pos: position(100, "180.00"), wantPnL: "500.00", wantClosing: true,
		},
		{
			name: "closing buy against short", side: models.SideBuy, quantity: 100, price: "185.00",
			pos: position(-100, "190.00"), wantPnL: "500.00", wantClosing: true,
		},
		{
			name: "partial close of long", side: models.SideSell, quantity: 50, price: "185.00",
			pos: position(200, "180.00"), wantPnL: "250.00", wantClosing: true,
		},
		{
			name: "oversized sell capped at position", side: models.SideSell, quantity: 300, price: "185.00",
			pos: position(200, "180.00"), wantPnL: "1000.00", wantClosing: true,
		},
		{
			name: "oversized buy capped at short magnitude", side: models.SideBuy, quantity: 300, price: "185.00",
			pos: position(-200, "190.00"), wantPnL: "1000.00", wantClosing: true,
		},
		{
			name: "buy while long is opening", side: models.SideBuy, quantity: 100, price: "1.00",
			pos: position(100, "180.00"), wantPnL: "0", wantClosing: false,
		},
		{
			name: "sell while short is adding", side: models.SideSell, quantity: 100, price: "9999.99",
			pos: position(-100, "180.00"), wantPnL: "0", wantClosing: false,
		},
		{
			name: "sell against flat position", side: models.SideSell, quantity: 100, price: "185.00",
			pos: position(0, "180.00"), wantPnL: "0", wantClosing: false,
		},
		{
			name: "zero quantity still classifies direction", side: models.SideSell, quantity: 0, price: "185.00",
			pos: position(100, "180.00"), wantPnL: "0", wantClosing: true,
		},
		{
			name: "closing at a loss", side: models.SideSell, quantity: 100, price: "175.00",
			pos: position(100, "180.00"), wantPnL: "-500.00", wantClosing: true,
		},
		{
			name: "tiny price stays exact", side: models.SideSell, quantity: 3, price: "0.0001",
			pos: position(3, "0.0003"), wantPnL: "-0.0006", wantClosing: true,
		},
		{
			name: "large price stays exact", side: models.SideSell, quantity: 7, price: "123456789.12",
			pos: position(7, "123456789.10"), wantPnL: "0.14", wantClosing: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(tc.side, tc.quantity, dec(tc.price), tc.pos)
			if got.IsClosing != tc.wantClosing {
				t.Fatalf("is_closing=%v, want %v", got.IsClosing, tc.wantClosing)
			}
			if !got.RealizedPnL.Equal(dec(tc.wantPnL)) {
				t.Fatalf("realized_pnl=%s, want %s", got.RealizedPnL, tc.wantPnL)
			}
		})
	}
}

// Opening trades realize nothing regardless of how far price sits from cost.
func TestCalculate_OpeningIgnoresPrice(t *testing.T) {
	for _, price := range []string{"0.01", "180.00", "500000.00"} {
		got := Calculate(models.SideBuy, 100, dec(price), position(100, "180.00"))
		if got.IsClosing || !got.RealizedPnL.IsZero() {
			t.Fatalf("price %s: got %+v, want zero/non-closing", price, got)
		}
	}
}
