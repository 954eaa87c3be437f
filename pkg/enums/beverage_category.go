package enums

import (
	"fmt"
	"strings"
)

// BeverageCategory classifies catalog beverages.
type BeverageCategory string

const (
	BeverageCategoryAlcoholic    BeverageCategory = "Alcoholic"
	BeverageCategoryNonAlcoholic BeverageCategory = "Non-Alcoholic"
)

var validBeverageCategories = []BeverageCategory{
	BeverageCategoryAlcoholic,
	BeverageCategoryNonAlcoholic,
}

// String implements fmt.Stringer.
func (c BeverageCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known BeverageCategory.
func (c BeverageCategory) IsValid() bool {
	for _, candidate := range validBeverageCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBeverageCategory converts raw input into a BeverageCategory. Matching
// ignores case and accepts "non alcoholic" / "nonalcoholic" spellings.
func ParseBeverageCategory(value string) (BeverageCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(normalized)
	switch normalized {
	case "alcoholic":
		return BeverageCategoryAlcoholic, nil
	case "nonalcoholic":
		return BeverageCategoryNonAlcoholic, nil
	}
	return "", fmt.Errorf("invalid beverage category %q", value)
}

// CategoryFilter narrows the catalog and consumption views.
type CategoryFilter string

const CategoryFilterAll CategoryFilter = "all"

// ParseCategoryFilter maps query input to a filter; unknown or empty input
// means all categories.
func ParseCategoryFilter(value string) CategoryFilter {
	category, err := ParseBeverageCategory(value)
	if err != nil {
		return CategoryFilterAll
	}
	return CategoryFilter(category)
}

// Matches reports whether the category passes the filter.
func (f CategoryFilter) Matches(category BeverageCategory) bool {
	if f == "" || f == CategoryFilterAll {
		return true
	}
	return BeverageCategory(f) == category
}

// CategoryFilters lists the filter choices in display order.
func CategoryFilters() []CategoryFilter {
	return []CategoryFilter{
		CategoryFilterAll,
		CategoryFilter(BeverageCategoryAlcoholic),
		CategoryFilter(BeverageCategoryNonAlcoholic),
	}
}

// Label is the text shown for the filter.
func (f CategoryFilter) Label() string {
	if f == "" || f == CategoryFilterAll {
		return "All"
	}
	return string(f)
}
