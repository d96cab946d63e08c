package enums

import "fmt"

// ProductSort names the orderings accepted by the paginated catalog listing.
type ProductSort string

const (
	ProductSortNewest     ProductSort = "newest"
	ProductSortPriceAsc   ProductSort = "price-asc"
	ProductSortPriceDesc  ProductSort = "price-desc"
	ProductSortPopularity ProductSort = "popularity"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortPopularity,
}

// String implements fmt.Stringer.
func (s ProductSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductSort.
func (s ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort, defaulting to
// newest-first when the value is empty.
func ParseProductSort(value string) (ProductSort, error) {
	if value == "" {
		return ProductSortNewest, nil
	}
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
