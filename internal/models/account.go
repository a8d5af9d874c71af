package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Phone is a subscriber phone number. The API sends it either as a JSON
// number or as a string, so it is kept as the digit string it was sent as.
type Phone string

// UnmarshalJSON accepts both 79308312222 and "79308312222".
func (p *Phone) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid phone: %w", err)
		}
		*p = Phone(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid phone: %w", err)
	}
	*p = Phone(n.String())
	return nil
}

// Int64 converts the phone into the integer form used for account lookups.
func (p Phone) Int64() (int64, error) {
	digits := strings.TrimPrefix(string(p), "+")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("phone %q is not numeric: %w", string(p), err)
	}
	return n, nil
}

// Owner is the abonent owning an account.
type Owner struct {
	ID    int64 `json:"id"`
	Phone Phone `json:"phone"`
}

// Account represents a subscriber account in RosDomofon.
type Account struct {
	ID      int64   `json:"id"`
	Number  *string `json:"number,omitempty"`
	Blocked bool    `json:"blocked"`
	Owner   Owner   `json:"owner"`
}

// String returns a string representation of the Account.
func (a *Account) String() string {
	number := "not specified"
	if a.Number != nil && *a.Number != "" {
		number = *a.Number
	}
	return fmt.Sprintf("Account{ID: %d, Phone: %s, Blocked: %t, Number: %s}", a.ID, a.Owner.Phone, a.Blocked, number)
}

// Service is a vendor service (intercom, camera, barrier) sold at an address.
type Service struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CustomName string  `json:"customName"`
	Tariff     float64 `json:"tariff"`
	Type       string  `json:"type,omitempty"`
}

// Connection links an account to a service it pays for.
type Connection struct {
	ID      int64   `json:"id"`
	Tariff  float64 `json:"tariff"`
	Blocked bool    `json:"blocked"`
	Service Service `json:"service"`
}
