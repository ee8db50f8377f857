// Command print-order is a read-only diagnostic: it loads the order
// store file directly and prints one order (or the id listing) as
// indented JSON, without triggering normalization or backups.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	file := flag.String("file", "orders.json", "order store file")
	id := flag.String("id", "", "order id to print; empty lists all ids")
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

	if *id == "" {
		for _, rec := range records {
			var probe struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			}
			_ = json.Unmarshal(rec, &probe)
			fmt.Printf("%s\t%s\n", probe.ID, probe.Status)
		}
		fmt.Fprintf(os.Stderr, "%d orders\n", len(records))
		return
	}

	for _, rec := range records {
		var probe struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(rec, &probe)
		if probe.ID != *id {
			continue
		}
		var pretty any
		_ = json.Unmarshal(rec, &pretty)
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return
	}
	log.Fatalf("order %s not found in %s", *id, *file)
}
