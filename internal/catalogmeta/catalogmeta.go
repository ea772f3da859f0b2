// Package catalogmeta maps catalog categories to the display metadata the
// storefront badges use: a color class per category and subcategory plus an
// emoji for known subcategories. The maps are static; unknown values resolve
// to a neutral badge.
package catalogmeta

const neutralColor = "bg-gray-100 text-gray-800 border-gray-300"

var categoryColors = map[string]string{
	"Crop":                    "bg-green-50 text-green-800 border-green-200",
	"Fertilizer":              "bg-blue-50 text-blue-800 border-blue-200",
	"Pesticide":               "bg-red-50 text-red-800 border-red-200",
	"Household Items":         "bg-purple-50 text-purple-800 border-purple-200",
	"Sprayers":                "bg-amber-50 text-amber-800 border-amber-200",
	"Sprayers Parts":          "bg-cyan-50 text-cyan-800 border-cyan-200",
	"Terrace Gardening":       "bg-emerald-50 text-emerald-800 border-emerald-200",
	"Household Insecticides":  "bg-orange-50 text-orange-800 border-orange-200",
	"Farm Machinery":          "bg-gray-100 text-gray-800 border-gray-300",
	"Plantation":              "bg-lime-50 text-lime-800 border-lime-200",
}

var subCategoryColors = map[string]map[string]string{
	"Fertilizer": {
		"Organic":     "bg-green-100 text-green-900 border-green-300",
		"Non-organic": "bg-yellow-100 text-yellow-900 border-yellow-300",
	},
	"Crop": {
		"Field Crop":     "bg-teal-100 text-teal-900 border-teal-300",
		"Vegetable Crop": "bg-emerald-100 text-emerald-900 border-emerald-300",
	},
	"Pesticide": {
		"Herbicides":   "bg-red-100 text-red-900 border-red-300",
		"Insecticides": "bg-orange-100 text-orange-900 border-orange-300",
		"Fungicides":   "bg-purple-100 text-purple-900 border-purple-300",
	},
}

var subCategoryEmojis = map[string]map[string]string{
	"Fertilizer": {
		"Organic":     "\U0001F331",
		"Non-organic": "⚗️",
	},
	"Crop": {
		"Field Crop":     "\U0001F33E",
		"Vegetable Crop": "\U0001F966",
	},
	"Pesticide": {
		"Herbicides":   "\U0001F6AB",
		"Insecticides": "\U0001F41B",
		"Fungicides":   "\U0001F344",
	},
}

// CategoryColor returns the badge color classes for a category.
func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return neutralColor
}

// SubCategoryColor returns the badge color classes for a subcategory within
// its category.
func SubCategoryColor(category, subCategory string) string {
	if m, ok := subCategoryColors[category]; ok {
		if c, ok := m[subCategory]; ok {
			return c
		}
	}
	return neutralColor
}

// SubCategoryEmoji returns the emoji shown next to a subcategory badge, empty
// when none is defined.
func SubCategoryEmoji(category, subCategory string) string {
	if m, ok := subCategoryEmojis[category]; ok {
		return m[subCategory]
	}
	return ""
}

// Badge holds the resolved display metadata for one order item.
type Badge struct {
	CategoryColor    string `json:"categoryColor"`
	SubCategoryColor string `json:"subCategoryColor,omitempty"`
	SubCategoryEmoji string `json:"subCategoryEmoji,omitempty"`
}

// For resolves the full badge for a category and optional subcategory.
func For(category, subCategory string) Badge {
	b := Badge{CategoryColor: CategoryColor(category)}
	if subCategory != "" {
		b.SubCategoryColor = SubCategoryColor(category, subCategory)
		b.SubCategoryEmoji = SubCategoryEmoji(category, subCategory)
	}
	return b
}
