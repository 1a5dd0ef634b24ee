package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Address is a shipping address owned by a user
type Address struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	Phone      string    `db:"phone" json:"phone"`
	Street     string    `db:"street" json:"street"`
	Barangay   string    `db:"barangay" json:"barangay"`
	City       string    `db:"city" json:"city"`
	Province   string    `db:"province" json:"province"`
	PostalCode string    `db:"postal_code" json:"postal_code"`
	IsDefault  bool      `db:"is_default" json:"is_default"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Snapshot copies the address fields that are embedded in an order.
func (a *Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		Name:       a.Name,
		Phone:      a.Phone,
		Street:     a.Street,
		Barangay:   a.Barangay,
		City:       a.City,
		Province:   a.Province,
		PostalCode: a.PostalCode,
	}
}

// AddressSnapshot is the shipping address captured on an order. It is
// stored as a JSONB column and never changes after the order is placed.
type AddressSnapshot struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	Barangay   string `json:"barangay"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
}

// Value implements driver.Valuer
func (s AddressSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *AddressSnapshot) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*s = AddressSnapshot{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into AddressSnapshot", src)
	}
	return json.Unmarshal(data, s)
}
