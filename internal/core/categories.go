package core

// Suggested category labels for presentation layers. Categories are free-form
// on transactions; these sets are informational only and never enforced.
var (
	ExpenseCategories = []string{
		"餐饮🍜",
		"交通🚗",
		"购物🛒",
		"娱乐🎬",
		"医疗⚕️",
		"教育📚",
		"住房🏠",
		"其他📦",
	}

	IncomeCategories = []string{
		"工资💰",
		"奖金🎁",
		"投资📈",
		"兼职💼",
		"其他💵",
	}
)

// CategoriesFor returns the suggested label set for a kind.
func CategoriesFor(k Kind) []string {
	if k == Income {
		return append([]string(nil), IncomeCategories...)
	}
	return append([]string(nil), ExpenseCategories...)
}
