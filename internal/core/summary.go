package core

// ExpenseDetail is an expense row joined with its category name, as shown
// in monthly listings.
type ExpenseDetail struct {
	ID          int64
	Description string
	Amount      float64
	Category    string
	Date        Date
	Method      PaymentMethod
}

// CategoryTotal is an amount aggregated by category name.
type CategoryTotal struct {
	Category string
	Total    float64
}

// CategoryMethodTotal is an amount aggregated by category and payment method.
type CategoryMethodTotal struct {
	Category string
	Method   PaymentMethod
	Total    float64
}

// MonthTotal is one month's total within an annual comparison. Months with
// no recorded rows are absent from the comparison.
type MonthTotal struct {
	Month int
	Total float64
}

// SourceTotal is an income amount aggregated by source label.
type SourceTotal struct {
	Source string
	Total  float64
}

// MethodTotals maps every payment method to its total. Both methods are
// always present, defaulting to zero.
type MethodTotals map[PaymentMethod]float64

// NewMethodTotals returns a MethodTotals with all methods at zero.
func NewMethodTotals() MethodTotals {
	return MethodTotals{Cash: 0, Card: 0}
}

// Balance is the derived income/expense view for a month or a year.
// It is computed on read and never stored.
type Balance struct {
	Income   float64
	Expenses float64
	Balance  float64
}

// AdminStats summarises the account directory for administrators.
type AdminStats struct {
	TotalAccounts    int
	ActiveAccounts   int
	InactiveAccounts int
	AdminAccounts    int
	RecentAccounts   int // registered within the trailing 30 days
}
