package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents one ticker's daily aggregate as returned by the market
// data API. Field tags match the upstream response keys.
type Bar struct {
	Ticker       string          `json:"T"`
	Volume       float64         `json:"v"`
	VWAP         decimal.Decimal `json:"vw"`
	Open         decimal.Decimal `json:"o"`
	Close        decimal.Decimal `json:"c"`
	High         decimal.Decimal `json:"h"`
	Low          decimal.Decimal `json:"l"`
	Timestamp    int64           `json:"t"`
	Transactions int64           `json:"n"`
}

// Time converts the bar's epoch-millisecond timestamp to UTC.
func (b *Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}
