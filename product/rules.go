package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kdsmith18542/liveform/form"
)

// Field names, in declaration order.
const (
	FieldName        = "name"
	FieldPrice       = "price"
	FieldReleaseDate = "releaseDate"
	FieldStockLevel  = "stockLevel"
	FieldDescription = "description"
	FieldCategory    = "category"
)

// Limits enforced by the rule set.
const (
	MinNameLength        = 3
	MaxNameLength        = 50
	MaxDescriptionLength = 500
)

// MaxPrice is the highest accepted price, inclusive.
var MaxPrice = decimal.NewFromInt(100000)

// Categories are the selectable category codes, in display order. Their
// labels live in the message catalogues under "category.<code>".
var Categories = []string{"electronics", "clothing", "furniture", "books", "food", "other"}

// IsCategory reports whether code is one of Categories.
func IsCategory(code string) bool {
	for _, c := range Categories {
		if c == code {
			return true
		}
	}
	return false
}

// Input is what the rules evaluate: the form plus the calendar date the
// evaluation happens on.
type Input struct {
	Form
	Today time.Time
}

var rules = newRules()

// Rules returns the product rule set. It is shared and read-only.
func Rules() *form.RuleSet[Input] {
	return rules
}

func newRules() *form.RuleSet[Input] {
	type check = form.Check[Input]

	return form.NewRuleSet[Input]().
		Field(FieldName,
			check{
				Fails:   func(in Input) bool { return in.Name == "" },
				Message: "product.name.required",
			},
			check{
				Fails:   func(in Input) bool { return form.Length(in.Name) < MinNameLength },
				Message: "product.name.too_short",
				Params:  map[string]interface{}{"Min": MinNameLength},
			},
			check{
				Fails:   func(in Input) bool { return form.Length(in.Name) > MaxNameLength },
				Message: "product.name.too_long",
				Params:  map[string]interface{}{"Max": MaxNameLength},
			},
		).
		Field(FieldPrice,
			check{
				Fails:   func(in Input) bool { return !in.Price.IsPositive() },
				Message: "product.price.not_positive",
			},
			check{
				Fails:   func(in Input) bool { return in.Price.GreaterThan(MaxPrice) },
				Message: "product.price.too_high",
			},
		).
		Field(FieldReleaseDate,
			check{
				Fails:   func(in Input) bool { return form.DateOf(in.ReleaseDate).After(form.AddYears(in.Today, 1)) },
				Message: "product.releaseDate.too_far",
			},
		).
		Field(FieldStockLevel,
			check{
				Fails:   func(in Input) bool { return in.StockLevel < 0 },
				Message: "product.stockLevel.negative",
			},
		).
		Field(FieldDescription,
			check{
				Fails:   func(in Input) bool { return form.Length(in.Description) > MaxDescriptionLength },
				Message: "product.description.too_long",
				Params:  map[string]interface{}{"Max": MaxDescriptionLength},
			},
		).
		Field(FieldCategory,
			check{
				Fails:   func(in Input) bool { return in.Category == "" },
				Message: "product.category.required",
			},
		)
}
