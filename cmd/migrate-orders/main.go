// Command migrate-orders converts a legacy order store file to the
// canonical schema. The legacy shape kept Portuguese field names
// ("itens", "totalBruto") and no history; records already in the new
// shape pass through untouched. The store normalizer finishes the job
// (financial fields, status casing) on the next read.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

// migratedAt marks records converted from the legacy shape.
var migratedAt = time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC)

type legacyItem struct {
	ServiceID  int64   `json:"serviceId"`
	ProviderID int64   `json:"providerId"`
	Nome       string  `json:"nome"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   *int64  `json:"quantity"`
	Total      float64 `json:"total"`
}

type legacyOrder struct {
	ID         json.RawMessage `json:"id"`
	Status     string          `json:"status"`
	TotalBruto float64         `json:"totalBruto"`
	TotalFinal *float64        `json:"totalFinal"`
	Itens      []legacyItem    `json:"itens"`
}

func main() {
	file := flag.String("file", "orders.json", "order store file to migrate in place")
	flag.Parse()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		var doc struct {
			Orders []json.RawMessage `json:"orders"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil || doc.Orders == nil {
			log.Fatalf("%s: not an order collection", *file)
		}
		records = doc.Orders
	}

	out := make([]any, 0, len(records))
	migrated := 0
	for _, rec := range records {
		if isCanonical(rec) {
			var keep any
			_ = json.Unmarshal(rec, &keep)
			out = append(out, keep)
			continue
		}
		var legacy legacyOrder
		if err := json.Unmarshal(rec, &legacy); err != nil {
			log.Fatalf("unreadable record: %v", err)
		}
		out = append(out, migrateOne(legacy))
		migrated++
	}

	data, err := json.MarshalIndent(map[string]any{"orders": out}, "", "  ")
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(*file, data, 0o644); err != nil {
		log.Fatalf("write %s: %v", *file, err)
	}
	fmt.Printf("migrated %d of %d orders in %s\n", migrated, len(records), *file)
}

// isCanonical detects records already in the new shape: an items array
// plus totals and status.
func isCanonical(rec json.RawMessage) bool {
	var probe struct {
		Items  []json.RawMessage `json:"items"`
		Totals json.RawMessage   `json:"totals"`
		Status string            `json:"status"`
	}
	if err := json.Unmarshal(rec, &probe); err != nil {
		return false
	}
	return probe.Items != nil && len(probe.Totals) > 0 && probe.Status != ""
}

func migrateOne(legacy legacyOrder) map[string]any {
	items := make([]map[string]any, 0, len(legacy.Itens))
	gross := 0.0
	subtotals := map[int64]float64{}
	var providerOrder []int64

	for _, it := range legacy.Itens {
		name := it.Nome
		if name == "" {
			name = it.Name
		}
		qty := int64(1)
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		items = append(items, map[string]any{
			"serviceId":  it.ServiceID,
			"providerId": it.ProviderID,
			"name":       name,
			"unitPrice":  it.UnitPrice,
			"quantity":   qty,
			"total":      it.Total,
		})
		gross += it.Total
		if _, seen := subtotals[it.ProviderID]; !seen {
			providerOrder = append(providerOrder, it.ProviderID)
		}
		subtotals[it.ProviderID] += it.Total
	}
	if len(items) == 0 {
		gross = legacy.TotalBruto
	}
	final := gross
	if legacy.TotalFinal != nil {
		final = *legacy.TotalFinal
	}

	providers := make([]map[string]any, 0, len(providerOrder))
	for _, pid := range providerOrder {
		providers = append(providers, map[string]any{
			"providerId": pid,
			"subtotal":   subtotals[pid],
		})
	}

	at := migratedAt.Format(time.RFC3339Nano)
	return map[string]any{
		"id":       "ord_" + trimQuotes(string(legacy.ID)),
		"customer": nil,
		"items":    items,
		"totals": map[string]any{
			"gross": gross,
			"final": final,
		},
		"providers": providers,
		"status":    "CREATED",
		"history": []map[string]any{
			{"at": at, "type": "ORDER_MIGRATED", "message": "Migrated from legacy store format"},
		},
		"createdAt": at,
		"updatedAt": at,
	}
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
