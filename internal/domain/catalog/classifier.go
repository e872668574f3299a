package catalog

// groupByCategoryCode maps the source system's two-digit category codes to
// category groups. Codes missing from the table resolve to GroupGeneral.
var groupByCategoryCode = map[string]Group{
	// Prepared and packaged food
	"01": GroupFood,
	"02": GroupFood,
	"03": GroupFood,

	// Chilled goods with short shelf life
	"04": GroupPerishable,
	"05": GroupPerishable,

	// Licensed goods
	"10": GroupAlcohol,
	"11": GroupAlcohol,
	"20": GroupTobacco,
}

// GroupOf resolves a category code to its group. Total function: every code
// maps to exactly one group, with GroupGeneral as the catch-all. Safe for
// concurrent use; the table is never mutated after init.
func GroupOf(categoryCode string) Group {
	if g, ok := groupByCategoryCode[categoryCode]; ok {
		return g
	}
	return GroupGeneral
}
