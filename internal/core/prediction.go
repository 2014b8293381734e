package core

// Window bounds an expense aggregation query. The lower bound is
// inclusive; the upper bound is always "now".
type Window string

const (
	// WindowAll imposes no lower bound.
	WindowAll Window = "all"
	// WindowDay starts at the beginning of the current calendar day.
	WindowDay Window = "day"
	// WindowWeek starts at the most recent Monday.
	WindowWeek Window = "week"
	// WindowMonth starts at the first day of the current calendar month.
	WindowMonth Window = "month"
)

func (w Window) Valid() bool {
	switch w {
	case WindowAll, WindowDay, WindowWeek, WindowMonth:
		return true
	}
	return false
}

// ExpenseSummary maps a category to its summed spend. Derived and
// ephemeral; categories with no transactions are simply absent until a
// caller reconciles against Categories().
type ExpenseSummary map[Category]Money

// Total sums every category in the summary.
func (s ExpenseSummary) Total() Money {
	var total Money
	for _, amount := range s {
		total = total.Add(amount)
	}
	return total
}

// FeatureVector is an ordered set of named numeric features. Order
// follows the feature schema the consuming model was trained with;
// models match columns by name, so the order must be preserved
// end to end.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Value returns the value for a feature name and whether it is present.
func (v FeatureVector) Value(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// CategoryPrediction reconciles one model's output against the actual
// spend in its category. Invariant: 0 <= PotentialSavings <= ActualExpense
// (under the default clamp policy).
type CategoryPrediction struct {
	ActualExpense     float64 `json:"actual_expense"`
	PotentialSavings  float64 `json:"potential_savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// PredictionTotals sums the included categories. The percentage is
// recomputed from the summed values, not averaged.
type PredictionTotals struct {
	ActualExpenses    float64 `json:"actual_expenses"`
	PotentialSavings  float64 `json:"potential_savings"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// PredictionReport is the full per-user savings estimate. An empty
// Predictions map is a valid result, not an error.
type PredictionReport struct {
	Predictions map[Category]CategoryPrediction `json:"predictions"`
	Totals      PredictionTotals                `json:"totals"`
}

// DailySpend is one bucket of the daily trend series.
type DailySpend struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// CategorySpend is one entry of the per-category trend series.
type CategorySpend struct {
	Category Category `json:"category"`
	Amount   float64  `json:"amount"`
}

// TrendReport holds daily and per-category spend for a trailing window.
// Daily is contiguous and zero-seeded; Category only lists categories
// that actually occur.
type TrendReport struct {
	Daily    []DailySpend    `json:"daily"`
	Category []CategorySpend `json:"category"`
}

// SavingsPercentage computes savings as a percentage of actual spend,
// defined as 0 when actual is 0 to avoid dividing by zero.
func SavingsPercentage(savings, actual float64) float64 {
	if actual == 0 {
		return 0
	}
	return savings / actual * 100
}
