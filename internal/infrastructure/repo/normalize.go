package repo

import (
	"encoding/json"
	"reflect"
	"time"

	"tourmarket-backend/internal/domain"
	"tourmarket-backend/internal/finance"

	"github.com/google/uuid"
)

// normalizeOrder reconciles a possibly-partial or legacy-shaped record
// into the canonical schema. Derived fields (items' totals, order
// totals, providers, financial) are treated as a cache and rebuilt from
// items on every call; they are never trusted verbatim from storage.
// The stored financial.generatedAt is reused when present so that
// normalizing an already-normalized order is a no-op.
func normalizeOrder(o domain.Order, defaultPercent float64, now time.Time) domain.Order {
	if o.ID == "" {
		o.ID = "ord_" + uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	if o.Status == "" {
		o.Status = domain.StatusCreated
	} else {
		o.Status = domain.NormalizeStatus(string(o.Status))
	}
	if o.History == nil {
		o.History = []domain.HistoryEvent{}
	}

	items, totals, providers := finance.Derive(o.Items)

	generatedAt := o.Financial.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = now
	}
	items, fin := finance.Compute(items, defaultPercent, generatedAt)

	o.Items = items
	o.Totals = totals
	o.Providers = providers
	o.Financial = fin
	return o
}

// structurallyEqual compares the raw stored record against the
// normalized form, ignoring key order. A mismatch means the on-disk
// shape is stale and the store persists the normalized form back.
func structurallyEqual(raw json.RawMessage, normalized domain.Order) bool {
	out, err := json.Marshal(normalized)
	if err != nil {
		return false
	}
	var a, b any
	if err := json.Unmarshal(raw, &a); err != nil {
		return false
	}
	if err := json.Unmarshal(out, &b); err != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}
