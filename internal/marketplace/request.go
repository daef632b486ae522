package marketplace

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	errMissingFields = errors.New("missing required fields")
	errInvalidDate   = errors.New("invalid dateTimeISO")
)

// Price accepts a JSON number or a numeric string, like a loosely typed form field.
// Valid is false when the value was absent, null, or did not parse as a finite number.
type Price struct {
	Value float64
	Valid bool
}

func (p *Price) UnmarshalJSON(b []byte) error {
	*p = Price{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	raw := string(b)
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	p.Value, p.Valid = v, true
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// CreateOrderRequest is the POST /orders body.
type CreateOrderRequest struct {
	ThreadID    *string `json:"threadId"`
	TaskID      string  `json:"taskId"`
	ClientID    string  `json:"clientId"`
	ProviderID  string  `json:"providerId"`
	Title       string  `json:"title"`
	Location    *string `json:"location"`
	DateTimeISO string  `json:"dateTimeISO"`
	PriceEur    Price   `json:"priceEur"`
}

// Validate checks presence and types and returns the store payload.
func (r CreateOrderRequest) Validate() (NewOrder, error) {
	if strings.TrimSpace(r.TaskID) == "" ||
		strings.TrimSpace(r.ClientID) == "" ||
		strings.TrimSpace(r.ProviderID) == "" ||
		strings.TrimSpace(r.Title) == "" ||
		strings.TrimSpace(r.DateTimeISO) == "" ||
		!r.PriceEur.Valid {
		return NewOrder{}, errMissingFields
	}

	when, err := time.Parse(time.RFC3339, strings.TrimSpace(r.DateTimeISO))
	if err != nil {
		return NewOrder{}, errInvalidDate
	}

	return NewOrder{
		ThreadID:    blankToNil(r.ThreadID),
		TaskID:      strings.TrimSpace(r.TaskID),
		ClientID:    strings.TrimSpace(r.ClientID),
		ProviderID:  strings.TrimSpace(r.ProviderID),
		Title:       strings.TrimSpace(r.Title),
		Location:    blankToNil(r.Location),
		DateTimeISO: when,
		PriceEur:    r.PriceEur.Value,
	}, nil
}

// CreateReviewRequest is the POST /jobs/:id/review body.
type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateJobRequest is the POST /jobs body.
type CreateJobRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    *string `json:"location"`
	BudgetEur   Price   `json:"budgetEur"`
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
