package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Customer is stamped from the authenticated actor at creation, never
// from request input.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ProviderID tolerates legacy records where the value was stored as a
// number, a numeric string, or omitted entirely. An unset or
// non-numeric value decodes as invalid and marshals back as null.
type ProviderID struct {
	value int64
	valid bool
}

func NewProviderID(v int64) ProviderID {
	return ProviderID{value: v, valid: true}
}

func (p ProviderID) Value() (int64, bool) {
	return p.value, p.valid
}

func (p ProviderID) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(p.value, 10)), nil
}

func (p *ProviderID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		*p = ProviderID{value: int64(v), valid: true}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*p = ProviderID{value: n, valid: true}
		} else {
			*p = ProviderID{}
		}
	default:
		*p = ProviderID{}
	}
	return nil
}

type ItemPlatform struct {
	CommissionPercent *float64 `json:"commissionPercent"`
	CommissionValue   float64  `json:"commissionValue"`
}

type ItemProvider struct {
	NetValue float64 `json:"netValue"`
}

// OrderItem is one catalog-priced line. Platform and Provider are set
// by the financial split calculator; records read from storage may lack
// them until normalized.
type OrderItem struct {
	ServiceID  int64         `json:"serviceId"`
	ProviderID ProviderID    `json:"providerId"`
	Name       string        `json:"name"`
	UnitPrice  float64       `json:"unitPrice"`
	Quantity   int64         `json:"quantity"`
	Total      float64       `json:"total"`
	Platform   *ItemPlatform `json:"platform,omitempty"`
	Provider   *ItemProvider `json:"provider,omitempty"`

	totalSet bool
}

// TotalSet reports whether the record carried an explicit total, so the
// normalizer re-derives unitPrice*quantity only when it was absent.
func (i OrderItem) TotalSet() bool { return i.totalSet }

// MarkTotalSet is for code that builds items directly (creation flow,
// tests) rather than decoding them from storage.
func (i *OrderItem) MarkTotalSet() { i.totalSet = true }

// UnmarshalJSON tolerates the legacy store shapes: numeric fields may
// arrive as numbers or numeric strings, and a non-object value decodes
// as the zero item. Decoding never fails on valid JSON; the normalizer
// rebuilds whatever could not be kept.
func (i *OrderItem) UnmarshalJSON(data []byte) error {
	*i = OrderItem{}

	var raw struct {
		ServiceID  json.RawMessage `json:"serviceId"`
		ProviderID json.RawMessage `json:"providerId"`
		Name       json.RawMessage `json:"name"`
		UnitPrice  json.RawMessage `json:"unitPrice"`
		Quantity   json.RawMessage `json:"quantity"`
		Total      json.RawMessage `json:"total"`
		Platform   json.RawMessage `json:"platform"`
		Provider   json.RawMessage `json:"provider"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	if n, ok := looseFloat(raw.ServiceID); ok {
		i.ServiceID = int64(n)
	}
	if len(raw.ProviderID) > 0 {
		_ = i.ProviderID.UnmarshalJSON(raw.ProviderID)
	}
	if s, ok := looseString(raw.Name); ok {
		i.Name = s
	}
	if n, ok := looseFloat(raw.UnitPrice); ok {
		i.UnitPrice = n
	}
	if n, ok := looseFloat(raw.Quantity); ok {
		i.Quantity = int64(n)
	}
	if n, ok := looseFloat(raw.Total); ok {
		i.Total = n
		i.totalSet = true
	}
	if len(raw.Platform) > 0 {
		var platform *ItemPlatform
		if json.Unmarshal(raw.Platform, &platform) == nil {
			i.Platform = platform
		}
	}
	if len(raw.Provider) > 0 {
		var provider *ItemProvider
		if json.Unmarshal(raw.Provider, &provider) == nil {
			i.Provider = provider
		}
	}
	return nil
}

// looseString accepts a JSON string.
func looseString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// looseFloat accepts a JSON number or a numeric string.
func looseFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func looseTime(raw json.RawMessage) (time.Time, bool) {
	s, ok := looseString(raw)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type Totals struct {
	Gross float64 `json:"gross"`
	Final float64 `json:"final"`
}

// ProviderShare is the per-provider subtotal derived from items.
type ProviderShare struct {
	ProviderID int64   `json:"providerId"`
	Subtotal   float64 `json:"subtotal"`
}

// ProviderPayout aggregates one provider's money across an order.
// gross == platformCommissionValue + net for each payout.
type ProviderPayout struct {
	ProviderID              int64   `json:"providerId"`
	Gross                   float64 `json:"gross"`
	PlatformCommissionValue float64 `json:"platformCommissionValue"`
	Net                     float64 `json:"net"`
}

// Financial is a derived snapshot, rebuilt whenever items are
// (re)normalized. It is never trusted verbatim from storage.
type Financial struct {
	PlatformCommissionPercent float64          `json:"platformCommissionPercent"`
	PlatformCommissionTotal   float64          `json:"platformCommissionTotal"`
	ProviderPayouts           []ProviderPayout `json:"providerPayouts"`
	GeneratedAt               time.Time        `json:"generatedAt"`
}

// HistoryEvent is immutable once appended; ordering is append order.
type HistoryEvent struct {
	At      time.Time `json:"at"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
}

type Order struct {
	ID        string          `json:"id"`
	Customer  *Customer       `json:"customer"`
	Items     []OrderItem     `json:"items"`
	Totals    Totals          `json:"totals"`
	Providers []ProviderShare `json:"providers"`
	Financial Financial       `json:"financial"`
	Status    Status          `json:"status"`
	History   []HistoryEvent  `json:"history"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// UnmarshalJSON decodes a stored record leniently, field by field. One
// record with a legacy shape (numeric id, non-string status, malformed
// history) heals to whatever can be kept instead of failing the decode;
// the normalizer fills the gaps. Decoding never fails on valid JSON.
func (o *Order) UnmarshalJSON(data []byte) error {
	*o = Order{}

	var raw struct {
		ID        json.RawMessage `json:"id"`
		Customer  json.RawMessage `json:"customer"`
		Items     json.RawMessage `json:"items"`
		Totals    json.RawMessage `json:"totals"`
		Providers json.RawMessage `json:"providers"`
		Financial json.RawMessage `json:"financial"`
		Status    json.RawMessage `json:"status"`
		History   json.RawMessage `json:"history"`
		CreatedAt json.RawMessage `json:"createdAt"`
		UpdatedAt json.RawMessage `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	// a non-string id is dropped; the normalizer generates a fresh one
	if s, ok := looseString(raw.ID); ok {
		o.ID = s
	}
	// sub-decodes go through locals: Unmarshal can leave a partially
	// populated value behind on a type error
	if len(raw.Customer) > 0 {
		var c *Customer
		if json.Unmarshal(raw.Customer, &c) == nil {
			o.Customer = c
		}
	}
	if len(raw.Items) > 0 {
		var items []OrderItem
		if json.Unmarshal(raw.Items, &items) == nil {
			o.Items = items
		}
	}
	if len(raw.Totals) > 0 {
		var totals Totals
		if json.Unmarshal(raw.Totals, &totals) == nil {
			o.Totals = totals
		}
	}
	if len(raw.Providers) > 0 {
		var providers []ProviderShare
		if json.Unmarshal(raw.Providers, &providers) == nil {
			o.Providers = providers
		}
	}
	if len(raw.Financial) > 0 {
		var fin Financial
		if json.Unmarshal(raw.Financial, &fin) == nil {
			o.Financial = fin
		}
	}
	if s, ok := looseString(raw.Status); ok {
		o.Status = Status(s)
	}
	if len(raw.History) > 0 {
		var events []json.RawMessage
		if json.Unmarshal(raw.History, &events) == nil {
			for _, rec := range events {
				var ev HistoryEvent
				if json.Unmarshal(rec, &ev) == nil {
					o.History = append(o.History, ev)
				}
			}
		}
	}
	if t, ok := looseTime(raw.CreatedAt); ok {
		o.CreatedAt = t
	}
	if t, ok := looseTime(raw.UpdatedAt); ok {
		o.UpdatedAt = t
	}
	return nil
}

// OrderPatch carries the fields an update may change. Nil fields keep
// the current value; the id is never overridden by a patch.
type OrderPatch struct {
	Status    *Status
	History   []HistoryEvent
	UpdatedAt *time.Time
	Items     []OrderItem
	Customer  *Customer
}

// Apply merges the patch onto o and returns the result.
func (p OrderPatch) Apply(o Order) Order {
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.History != nil {
		o.History = p.History
	}
	if p.UpdatedAt != nil {
		o.UpdatedAt = *p.UpdatedAt
	}
	if p.Items != nil {
		o.Items = p.Items
	}
	if p.Customer != nil {
		o.Customer = p.Customer
	}
	return o
}

// OwnedBy reports whether the order belongs to the given actor.
func (o Order) OwnedBy(a Actor) bool {
	if a.ID == "" || o.Customer == nil {
		return false
	}
	return o.Customer.ID == a.ID
}
