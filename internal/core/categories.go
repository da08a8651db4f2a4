package core

import "slices"

// CategoryTable maps each kind to its closed set of categories. The sets are disjoint.
type CategoryTable map[Kind][]string

// Categories is the table consulted by validation and offered to the form collaborator.
var Categories = CategoryTable{
	KindIncome:  {"給与", "副業", "投資"},
	KindExpense: {"食費", "交通費", "娯楽費", "その他"},
}

// For returns a copy of the categories valid for kind.
func (t CategoryTable) For(kind Kind) []string {
	return slices.Clone(t[kind])
}

// Allows reports whether category belongs to kind's enumeration.
func (t CategoryTable) Allows(kind Kind, category string) bool {
	return slices.Contains(t[kind], category)
}

// KindOf returns the kind owning category, if any.
func (t CategoryTable) KindOf(category string) (Kind, bool) {
	for _, k := range []Kind{KindIncome, KindExpense} {
		if t.Allows(k, category) {
			return k, true
		}
	}
	return "", false
}
