package models

// Catalog categories. Fruit and dry goods are priced per reference weight,
// everything else carries a flat price.
const (
	CategoryFruit        = "fruit"
	CategoryDry          = "dry"
	CategoryCombo        = "combo"
	CategorySubscription = "subscription"
)

// Subcategories only refine fruit listings.
const (
	SubcategoryRegular = "regular"
	SubcategoryExotic  = "exotic"
)

// InventoryItem is the model for the 'inventory' table
type InventoryItem struct {
	ID          string   `json:"id" yaml:"id" db:"id"`
	SKU         string   `json:"sku" yaml:"sku" db:"sku"`
	Name        string   `json:"name" yaml:"name" db:"name"`
	Category    string   `json:"category" yaml:"category" db:"category"`
	Subcategory *string  `json:"subcategory,omitempty" yaml:"subcategory,omitempty" db:"subcategory"`
	Unit        string   `json:"unit" yaml:"unit" db:"unit"`
	WeightGrams *int     `json:"weightGrams,omitempty" yaml:"weightGrams,omitempty" db:"weight_grams"`
	Price       int64    `json:"price" yaml:"price" db:"price"` // per reference weight for weighted categories
	Image       string   `json:"image" yaml:"image" db:"image"`
	Tags        []string `json:"tags" yaml:"tags" db:"tags"`
}

// IsWeighted reports whether the item's price scales with the requested package weight.
func (i *InventoryItem) IsWeighted() bool {
	return IsWeightedCategory(i.Category)
}

// IsWeightedCategory reports whether a category is priced per reference weight.
func IsWeightedCategory(category string) bool {
	return category == CategoryFruit || category == CategoryDry
}

// IsValidCategory reports whether category is one of the known catalog categories.
func IsValidCategory(category string) bool {
	switch category {
	case CategoryFruit, CategoryDry, CategoryCombo, CategorySubscription:
		return true
	}
	return false
}

// IsValidSubcategory accepts an empty value (no subcategory) or one of the known ones.
func IsValidSubcategory(subcategory string) bool {
	switch subcategory {
	case "", SubcategoryRegular, SubcategoryExotic:
		return true
	}
	return false
}

// InventoryUpdate is the admin allow-list for partial catalog edits.
// A nil field is left untouched.
type InventoryUpdate struct {
	SKU         *string   `json:"sku"`
	Name        *string   `json:"name"`
	Category    *string   `json:"category"`
	Subcategory *string   `json:"subcategory"`
	Unit        *string   `json:"unit"`
	WeightGrams *int      `json:"weightGrams"`
	Price       *int64    `json:"price"`
	Image       *string   `json:"image"`
	Tags        *[]string `json:"tags"`
}

// IsEmpty reports whether the update carries no field at all.
func (u *InventoryUpdate) IsEmpty() bool {
	return u.SKU == nil && u.Name == nil && u.Category == nil && u.Subcategory == nil && u.Unit == nil &&
		u.WeightGrams == nil && u.Price == nil && u.Image == nil && u.Tags == nil
}
