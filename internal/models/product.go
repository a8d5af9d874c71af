package models

import (
	"sort"
	"strconv"
)

// CurrencyRUB is the only currency products are priced in.
const CurrencyRUB = "RUB"

// Product is a CRM-ready product record. Field names follow Bitrix24.
type Product struct {
	Price      float64 `json:"PRICE"`
	CurrencyID string  `json:"CURRENCY_ID"`
	Address    string  `json:"ADDRESS"`
	ServiceID  int64   `json:"ID_SERVICE_ROSDOMOFON"`
}

// NewProduct builds the product record for a service sold at the given tariff.
func NewProduct(tariff float64, service Service) Product {
	return Product{
		Price:      tariff,
		CurrencyID: CurrencyRUB,
		Address:    service.Name,
		ServiceID:  service.ID,
	}
}

// String renders the record with its CRM field names.
func (p Product) String() string {
	return "{PRICE: " + strconv.FormatFloat(p.Price, 'f', -1, 64) +
		", CURRENCY_ID: " + strconv.Quote(p.CurrencyID) +
		", ADDRESS: " + strconv.Quote(p.Address) +
		", ID_SERVICE_ROSDOMOFON: " + strconv.FormatInt(p.ServiceID, 10) + "}"
}

// Products maps a service custom name to its product record.
type Products map[string]Product

// Equal reports whether both sets hold the same keys with equal records.
func (p Products) Equal(other Products) bool {
	if len(p) != len(other) {
		return false
	}
	for key, value := range p {
		otherValue, ok := other[key]
		if !ok || otherValue != value {
			return false
		}
	}
	return true
}

// Keys returns the product keys in sorted order.
func (p Products) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
