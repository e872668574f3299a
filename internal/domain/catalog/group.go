package catalog

// Group identifies the business category family an item belongs to.
// Each group gets its own trained model and loss shape.
type Group string

const (
	GroupFood       Group = "food"
	GroupAlcohol    Group = "alcohol"
	GroupTobacco    Group = "tobacco"
	GroupPerishable Group = "perishable"
	GroupGeneral    Group = "general"
)

// Groups lists all category groups in one-hot encoding order.
// Order is part of the feature schema and must not change.
var Groups = []Group{
	GroupFood,
	GroupAlcohol,
	GroupTobacco,
	GroupPerishable,
	GroupGeneral,
}

// Valid reports whether g is a known category group
func (g Group) Valid() bool {
	switch g {
	case GroupFood, GroupAlcohol, GroupTobacco, GroupPerishable, GroupGeneral:
		return true
	}
	return false
}

// String returns the string representation of the group
func (g Group) String() string {
	return string(g)
}

// Index returns the position of g in the one-hot encoding order,
// or the general group's position for unknown values
func (g Group) Index() int {
	for i, known := range Groups {
		if g == known {
			return i
		}
	}
	return len(Groups) - 1
}
