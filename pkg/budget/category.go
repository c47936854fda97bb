// Package budget splits the checking allocation across spending categories.
package budget

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory is returned for names outside the fixed category set.
var ErrInvalidCategory = errors.New("invalid category")

// Category is a spending bucket within the checking allocation.
type Category string

// Spending categories.
const (
	Entertainment  Category = "Entertainment"
	Groceries      Category = "Groceries"
	Housing        Category = "Housing"
	Utilities      Category = "Utilities"
	Travel         Category = "Travel"
	Recreation     Category = "Recreation"
	Transportation Category = "Transportation"
	Other          Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	Entertainment,
	Groceries,
	Housing,
	Utilities,
	Travel,
	Recreation,
	Transportation,
	Other,
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(name string) (Category, error) {
	trimmed := strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(trimmed, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w %q, expected one of %s", ErrInvalidCategory, name, strings.Join(Names(), ", "))
}

// Names returns the category names in display order.
func Names() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}
