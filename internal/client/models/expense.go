package models

import (
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

type Expense struct {
	ID          string   `json:"id"`
	TripID      string   `json:"tripId"`
	Description string   `json:"description"`
	Amount      float64  `json:"amount"`
	Currency    Currency `json:"currency"`
	// ExchangeRate converts to the trip currency: 1 expense unit = rate trip units.
	ExchangeRate *float64 `json:"exchangeRate,omitempty"`
	Date         *string  `json:"date,omitempty"`
	Category     Category `json:"category"`
	PaidBy       *string  `json:"paidBy,omitempty"`
}

type ExpenseDraft struct {
	TripID       string
	Description  string
	Amount       float64
	Currency     Currency
	ExchangeRate *float64
	Date         *string
	Category     Category
	PaidBy       *string
}

func (d ExpenseDraft) Expense() Expense {
	return Expense{
		TripID:       d.TripID,
		Description:  d.Description,
		Amount:       d.Amount,
		Currency:     d.Currency,
		ExchangeRate: d.ExchangeRate,
		Date:         d.Date,
		Category:     d.Category,
		PaidBy:       d.PaidBy,
	}
}

// Doc is the create payload for e owned by uid.
func (e Expense) Doc(uid string) payload.Doc {
	d := payload.New().
		Set("tripId", e.TripID).
		Set("userId", uid).
		Set("description", e.Description).
		Set("amount", e.Amount).
		Set("currency", string(e.Currency)).
		Set("category", string(e.Category))
	payload.PutPtr(d, "exchangeRate", e.ExchangeRate)
	payload.PutPtr(d, "date", e.Date)
	payload.PutPtr(d, "paidBy", e.PaidBy)
	return d
}

// DateMillis is the expense date in Unix milliseconds, 0 when missing or
// unparseable.
func (e Expense) DateMillis() int64 {
	if e.Date == nil {
		return 0
	}
	ms, _ := ParseDate(*e.Date)
	return ms
}

// ExpenseLess orders by date ascending, then amount descending.
func ExpenseLess(a, b Expense) bool {
	da, db := a.DateMillis(), b.DateMillis()
	if da != db {
		return da < db
	}
	return a.Amount > b.Amount
}

func DecodeExpense(doc gateway.Document) (Expense, error) {
	var e Expense
	err := doc.Decode(&e)
	return e, err
}

type ExpensePatch struct {
	Description  payload.Opt[string]
	Amount       payload.Opt[float64]
	Currency     payload.Opt[Currency]
	ExchangeRate payload.Opt[float64]
	Date         payload.Opt[string]
	Category     payload.Opt[Category]
	PaidBy       payload.Opt[string]
}

func (p ExpensePatch) Apply(e Expense) Expense {
	if v, ok := p.Description.Get(); ok {
		e.Description = v
	}
	if v, ok := p.Amount.Get(); ok {
		e.Amount = v
	}
	if v, ok := p.Currency.Get(); ok {
		e.Currency = v
	}
	if v, ok := p.Category.Get(); ok {
		e.Category = v
	}
	e.ExchangeRate = p.ExchangeRate.Apply(e.ExchangeRate)
	e.Date = p.Date.Apply(e.Date)
	e.PaidBy = p.PaidBy.Apply(e.PaidBy)
	return e
}

func (p ExpensePatch) Fields() payload.Doc {
	d := payload.New()
	payload.Put(d, "description", p.Description)
	payload.Put(d, "amount", p.Amount)
	payload.Put(d, "currency", p.Currency)
	payload.Put(d, "category", p.Category)
	payload.Put(d, "exchangeRate", p.ExchangeRate)
	payload.Put(d, "date", p.Date)
	payload.Put(d, "paidBy", p.PaidBy)
	return d
}
