package model

import (
	"strconv"
	"strings"
	"time"
)

// FoodStatus is the availability of a listed food item.
type FoodStatus string

// Food statuses. Status only ever moves away from Available.
const (
	FoodAvailable FoodStatus = "Available"
	FoodDonated   FoodStatus = "Donated"
)

// ParseFoodStatus resolves a status name case-insensitively.
func ParseFoodStatus(s string) (FoodStatus, bool) {
	for _, st := range []FoodStatus{FoodAvailable, FoodDonated} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// DateLayout is the wire and storage format of expiry dates.
const DateLayout = time.DateOnly

// Food is a donated item listed by a donor.
type Food struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ImageURL       string     `json:"image_url,omitempty"`
	ImageMIME      string     `json:"image_mime,omitempty"`
	Image          []byte     `json:"-"`
	Quantity       string     `json:"quantity"`
	Category       string     `json:"category,omitempty"`
	PickupLocation string     `json:"pickup_location"`
	ExpireDate     string     `json:"expire_date"`
	Notes          string     `json:"notes,omitempty"`
	Status         FoodStatus `json:"status"`
	Donor          Identity   `json:"donor"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Available reports whether the item can still be requested.
func (f Food) Available() bool {
	return f.Status == FoodAvailable
}

// HasInlineImage reports whether the image is stored with the item.
func (f Food) HasInlineImage() bool {
	return f.ImageMIME != ""
}

// QuantityHint is the first whole number in the free-text quantity, or 0.
// Used for ranking only.
func (f Food) QuantityHint() int {
	start := strings.IndexFunc(f.Quantity, isDigit)
	if start < 0 {
		return 0
	}
	end := start
	for end < len(f.Quantity) && isDigit(rune(f.Quantity[end])) {
		end++
	}
	n, err := strconv.Atoi(f.Quantity[start:end])
	if err != nil {
		return 0
	}
	return n
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
