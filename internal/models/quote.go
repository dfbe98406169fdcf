package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/villastay/backend/pkg/dates"
)

// RateSource names the rule that priced a night.
type RateSource string

const (
	RateCustom  RateSource = "custom"
	RateSeason  RateSource = "season"
	RateWeekend RateSource = "weekend"
	RateWeekday RateSource = "weekday"
)

// LineItemKind identifies a row of the price breakdown.
type LineItemKind string

const (
	LineBase            LineItemKind = "base_price"
	LineAdultSupplement LineItemKind = "adult_supplement"
	LineChildSupplement LineItemKind = "child_supplement"
	LineFees            LineItemKind = "fees"
	LineDiscount        LineItemKind = "discount"
	LineTaxes           LineItemKind = "taxes"
)

// LineItem is one row of a quote. Discounts are negative.
type LineItem struct {
	Kind   LineItemKind `json:"kind"`
	Label  string       `json:"label"`
	Amount int64        `json:"amount"`
}

// NightlyRate is the resolved price of one night.
type NightlyRate struct {
	Date            time.Time  `json:"date"`
	Rate            int64      `json:"rate"`
	Source          RateSource `json:"source"`
	AdultSupplement int64      `json:"adult_supplement"`
	ChildSupplement int64      `json:"child_supplement"`
}

type nightlyRateJSON struct {
	Date            string     `json:"date"`
	Rate            int64      `json:"rate"`
	Source          RateSource `json:"source"`
	AdultSupplement int64      `json:"adult_supplement"`
	ChildSupplement int64      `json:"child_supplement"`
}

func (n NightlyRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(nightlyRateJSON{dates.Format(n.Date), n.Rate, n.Source, n.AdultSupplement, n.ChildSupplement})
}

func (n *NightlyRate) UnmarshalJSON(b []byte) error {
	var raw nightlyRateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d, err := dates.Parse(raw.Date)
	if err != nil {
		return err
	}
	*n = NightlyRate{Date: d, Rate: raw.Rate, Source: raw.Source, AdultSupplement: raw.AdultSupplement, ChildSupplement: raw.ChildSupplement}
	return nil
}

// Quote is an itemized price for a stay plus the hold token the checkout step must present.
// The sum of LineItems amounts equals Total.
type Quote struct {
	HoldToken       string        `json:"hold_token"`
	HoldExpiresAt   time.Time     `json:"hold_expires_at"`
	PropertyID      uuid.UUID     `json:"property_id"`
	CheckIn         time.Time     `json:"check_in"`
	CheckOut        time.Time     `json:"check_out"`
	Nights          int           `json:"nights"`
	Adults          int           `json:"adults"`
	Children        int           `json:"children"`
	Currency        string        `json:"currency"`
	NightlyRates    []NightlyRate `json:"nightly_rates"`
	BasePrice       int64         `json:"base_price"`
	AdultSupplement int64         `json:"adult_supplement"`
	ChildSupplement int64         `json:"child_supplement"`
	Subtotal        int64         `json:"subtotal"`
	Fees            int64         `json:"fees"`
	Discount        int64         `json:"discount"`
	Taxes           int64         `json:"taxes"`
	Total           int64         `json:"total"`
	CouponCode      string        `json:"coupon_code,omitempty"`
	SecurityDeposit int64         `json:"security_deposit"`
	LineItems       []LineItem    `json:"line_items"`
	CreatedAt       time.Time     `json:"created_at"`
}

// LineItemsTotal sums the line items.
func (q *Quote) LineItemsTotal() int64 {
	var sum int64
	for _, li := range q.LineItems {
		sum += li.Amount
	}
	return sum
}

type quoteAlias Quote

type quoteJSON struct {
	quoteAlias
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func (q Quote) MarshalJSON() ([]byte, error) {
	return json.Marshal(quoteJSON{quoteAlias(q), dates.Format(q.CheckIn), dates.Format(q.CheckOut)})
}

func (q *Quote) UnmarshalJSON(b []byte) error {
	var raw quoteJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	in, err := dates.Parse(raw.CheckIn)
	if err != nil {
		return fmt.Errorf("check_in: %w", err)
	}
	out, err := dates.Parse(raw.CheckOut)
	if err != nil {
		return fmt.Errorf("check_out: %w", err)
	}
	*q = Quote(raw.quoteAlias)
	q.CheckIn, q.CheckOut = in, out
	return nil
}
