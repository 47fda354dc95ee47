package models

import "strings"

// Category is the closed set of expense categories. Values outside the set
// never reach the store.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryShopping      Category = "shopping"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"
)

// CategoryAll is the list filter sentinel meaning "no category filter".
const CategoryAll = "all"

var categoryLabels = map[Category]string{
	CategoryFood:          "Food",
	CategoryTransport:     "Transport",
	CategoryEntertainment: "Entertainment",
	CategoryUtilities:     "Utilities",
	CategoryShopping:      "Shopping",
	CategoryHealth:        "Health",
	CategoryOther:         "Other",
}

// AllCategories returns every category in display order
func AllCategories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransport,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryShopping,
		CategoryHealth,
		CategoryOther,
	}
}

// IsValidCategory checks if a category string is one of the enumeration values
func IsValidCategory(category string) bool {
	_, ok := categoryLabels[Category(category)]
	return ok
}

// ParseCategory returns the category for an exact enumeration value
func ParseCategory(value string) (Category, bool) {
	if !IsValidCategory(value) {
		return "", false
	}
	return Category(value), true
}

// NormalizeCategory is the lenient form used for query filters: surrounding
// whitespace and letter case are ignored.
func NormalizeCategory(value string) (Category, bool) {
	return ParseCategory(strings.ToLower(strings.TrimSpace(value)))
}

func (c Category) Valid() bool {
	return IsValidCategory(string(c))
}

// Label returns the human readable name of the category
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

func (c Category) String() string {
	return string(c)
}

// CategoryOption is a {value, label} pair as served to the dashboard
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CategoryOptions returns the static category enumeration
func CategoryOptions() []CategoryOption {
	categories := AllCategories()
	options := make([]CategoryOption, 0, len(categories))
	for _, category := range categories {
		options = append(options, CategoryOption{Value: string(category), Label: category.Label()})
	}
	return options
}
