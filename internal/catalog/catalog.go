// Package catalog is the in-memory source of truth for the service and
// provider listings. Catalog management is out of scope; the data is
// fixed.
package catalog

type Service struct {
	ID         int64   `json:"id"`
	ProviderID int64   `json:"providerId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
}

type Provider struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func Services() []Service {
	return []Service{
		{ID: 1, ProviderID: 1, Name: "Boat trip", Price: 150},
		{ID: 2, ProviderID: 2, Name: "Guided trail", Price: 80},
		{ID: 3, ProviderID: 1, Name: "City tour", Price: 120},
	}
}

func Providers() []Provider {
	return []Provider{
		{ID: 1, Name: "Coastal Adventures"},
		{ID: 2, Name: "Trail Masters"},
	}
}

func ServiceByID(id int64) (Service, bool) {
	for _, s := range Services() {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

func ServicesByProviderID(providerID int64) []Service {
	out := []Service{}
	for _, s := range Services() {
		if s.ProviderID == providerID {
			out = append(out, s)
		}
	}
	return out
}

// Static adapts the package functions to the catalog interface the
// order service consumes.
type Static struct{}

func (Static) List() []Service { return Services() }
