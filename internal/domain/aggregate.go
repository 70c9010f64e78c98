package domain

import "github.com/shopspring/decimal"

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int
}

// Aggregates is a per-category projection of a set of expenses. Groups keep
// the order in which each category first appeared in the input.
type Aggregates struct {
	Groups []CategoryTotal
	Total  decimal.Decimal
}

// ComputeAggregates groups expenses by category and sums their amounts.
func ComputeAggregates(expenses []Expense) Aggregates {
	agg := Aggregates{Groups: []CategoryTotal{}, Total: decimal.Zero}
	index := make(map[string]int)

	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(agg.Groups)
			index[e.Category] = i
			agg.Groups = append(agg.Groups, CategoryTotal{Category: e.Category, Amount: decimal.Zero})
		}
		agg.Groups[i].Amount = agg.Groups[i].Amount.Add(e.Amount)
		agg.Groups[i].Count++
		agg.Total = agg.Total.Add(e.Amount)
	}
	return agg
}

// ByCategory returns the group sums keyed by category name.
func (a Aggregates) ByCategory() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.Groups))
	for _, g := range a.Groups {
		out[g.Category] = g.Amount
	}
	return out
}
