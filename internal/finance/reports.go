package finance

import (
	"context"
	"database/sql"
	"fmt"

	"finanzas/internal/core"
)

// ExpensesForMonth lists a month's expenses joined with their category
// name, newest date first.
func (s *Store) ExpensesForMonth(ctx context.Context, month, year int) ([]core.ExpenseDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.description, e.amount, c.name, e.date, e.payment_method
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.month = ? AND e.year = ?
		ORDER BY e.date DESC`, month, year)
	if err != nil {
		return nil, fmt.Errorf("expenses for month: %w", err)
	}
	defer rows.Close()

	return scanExpenseDetails(rows)
}

// TotalForMonth returns the month's expense total, zero when there are no
// rows.
func (s *Store) TotalForMonth(ctx context.Context, month, year int) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE month = ? AND year = ?",
		month, year).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total for month: %w", err)
	}
	return total, nil
}

// TotalForYear returns the year's expense total, zero when there are no rows.
func (s *Store) TotalForYear(ctx context.Context, year int) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE year = ?", year).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total for year: %w", err)
	}
	return total, nil
}

// ExpensesByCategoryForMonth aggregates a month's expenses per category,
// largest total first.
func (s *Store) ExpensesByCategoryForMonth(ctx context.Context, month, year int) ([]core.CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, SUM(e.amount) AS total
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.month = ? AND e.year = ?
		GROUP BY c.name
		ORDER BY total DESC`, month, year)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// ExpensesByMethodForMonth totals a month's expenses per payment method.
// Both methods are always present in the result, defaulting to zero.
func (s *Store) ExpensesByMethodForMonth(ctx context.Context, month, year int) (core.MethodTotals, error) {
	return s.methodTotals(ctx,
		"SELECT payment_method, SUM(amount) FROM expenses WHERE month = ? AND year = ? GROUP BY payment_method",
		month, year)
}

// ExpensesByMethodForYear totals a year's expenses per payment method.
func (s *Store) ExpensesByMethodForYear(ctx context.Context, year int) (core.MethodTotals, error) {
	return s.methodTotals(ctx,
		"SELECT payment_method, SUM(amount) FROM expenses WHERE year = ? GROUP BY payment_method",
		year)
}

func (s *Store) methodTotals(ctx context.Context, query string, args ...any) (core.MethodTotals, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses by method: %w", err)
	}
	defer rows.Close()

	totals := core.NewMethodTotals()
	for rows.Next() {
		var (
			method string
			total  float64
		)
		if err := rows.Scan(&method, &total); err != nil {
			return nil, fmt.Errorf("scan method total: %w", err)
		}
		// Unknown labels from hand-edited files are dropped rather than
		// invented as new keys.
		if _, ok := totals[core.PaymentMethod(method)]; ok {
			totals[core.PaymentMethod(method)] = total
		}
	}
	return totals, rows.Err()
}

// ExpensesByCategoryAndMethod aggregates per category and payment method.
// A nil month aggregates over the whole year.
func (s *Store) ExpensesByCategoryAndMethod(ctx context.Context, month *int, year int) ([]core.CategoryMethodTotal, error) {
	query := `
		SELECT c.name, e.payment_method, SUM(e.amount) AS total
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.year = ?`
	args := []any{year}
	if month != nil {
		query += " AND e.month = ?"
		args = append(args, *month)
	}
	query += " GROUP BY c.name, e.payment_method ORDER BY c.name, e.payment_method"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses by category and method: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryMethodTotal
	for rows.Next() {
		var (
			cmt    core.CategoryMethodTotal
			method string
		)
		if err := rows.Scan(&cmt.Category, &method, &cmt.Total); err != nil {
			return nil, fmt.Errorf("scan category method total: %w", err)
		}
		cmt.Method = core.PaymentMethod(method)
		totals = append(totals, cmt)
	}
	return totals, rows.Err()
}

// AnnualComparison returns each month's expense total for the year. Months
// without rows are absent, not zero-filled.
func (s *Store) AnnualComparison(ctx context.Context, year int) ([]core.MonthTotal, error) {
	return s.monthTotals(ctx,
		"SELECT month, SUM(amount) FROM expenses WHERE year = ? GROUP BY month ORDER BY month", year)
}

// AnnualIncomeComparison returns each month's income total for the year,
// sparse like AnnualComparison.
func (s *Store) AnnualIncomeComparison(ctx context.Context, year int) ([]core.MonthTotal, error) {
	return s.monthTotals(ctx,
		"SELECT month, SUM(amount) FROM income WHERE year = ? GROUP BY month ORDER BY month", year)
}

func (s *Store) monthTotals(ctx context.Context, query string, args ...any) ([]core.MonthTotal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("month totals: %w", err)
	}
	defer rows.Close()

	var totals []core.MonthTotal
	for rows.Next() {
		var mt core.MonthTotal
		if err := rows.Scan(&mt.Month, &mt.Total); err != nil {
			return nil, fmt.Errorf("scan month total: %w", err)
		}
		totals = append(totals, mt)
	}
	return totals, rows.Err()
}

// IncomeForMonth lists a month's income entries, newest date first.
func (s *Store) IncomeForMonth(ctx context.Context, month, year int) ([]core.Income, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount, source, date, month, year
		FROM income
		WHERE month = ? AND year = ?
		ORDER BY date DESC`, month, year)
	if err != nil {
		return nil, fmt.Errorf("income for month: %w", err)
	}
	defer rows.Close()

	var entries []core.Income
	for rows.Next() {
		var (
			in      core.Income
			dateStr string
		)
		if err := rows.Scan(&in.ID, &in.Description, &in.Amount, &in.Source, &dateStr, &in.Month, &in.Year); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		d, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored income date %q: %w", dateStr, err)
		}
		in.Date = d
		entries = append(entries, in)
	}
	return entries, rows.Err()
}

// TotalIncomeForMonth returns the month's income total, zero when empty.
func (s *Store) TotalIncomeForMonth(ctx context.Context, month, year int) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM income WHERE month = ? AND year = ?",
		month, year).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("income total for month: %w", err)
	}
	return total, nil
}

// TotalIncomeForYear returns the year's income total, zero when empty.
func (s *Store) TotalIncomeForYear(ctx context.Context, year int) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM income WHERE year = ?", year).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("income total for year: %w", err)
	}
	return total, nil
}

// IncomeBySourceForMonth aggregates a month's income per source label,
// largest total first.
func (s *Store) IncomeBySourceForMonth(ctx context.Context, month, year int) ([]core.SourceTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, SUM(amount) AS total
		FROM income
		WHERE month = ? AND year = ?
		GROUP BY source
		ORDER BY total DESC`, month, year)
	if err != nil {
		return nil, fmt.Errorf("income by source: %w", err)
	}
	defer rows.Close()

	var totals []core.SourceTotal
	for rows.Next() {
		var st core.SourceTotal
		if err := rows.Scan(&st.Source, &st.Total); err != nil {
			return nil, fmt.Errorf("scan source total: %w", err)
		}
		totals = append(totals, st)
	}
	return totals, rows.Err()
}

// BalanceForMonth derives the month's income/expense balance. Empty months
// yield all zeros.
func (s *Store) BalanceForMonth(ctx context.Context, month, year int) (core.Balance, error) {
	income, err := s.TotalIncomeForMonth(ctx, month, year)
	if err != nil {
		return core.Balance{}, err
	}
	expenses, err := s.TotalForMonth(ctx, month, year)
	if err != nil {
		return core.Balance{}, err
	}
	return core.Balance{Income: income, Expenses: expenses, Balance: income - expenses}, nil
}

// BalanceForYear derives the year's income/expense balance.
func (s *Store) BalanceForYear(ctx context.Context, year int) (core.Balance, error) {
	income, err := s.TotalIncomeForYear(ctx, year)
	if err != nil {
		return core.Balance{}, err
	}
	expenses, err := s.TotalForYear(ctx, year)
	if err != nil {
		return core.Balance{}, err
	}
	return core.Balance{Income: income, Expenses: expenses, Balance: income - expenses}, nil
}

// ExpensesForCategory lists a category's expenses, newest first. Month and
// year are optional filters: both set restricts to one month, year alone
// to one year, neither returns the category's full history.
func (s *Store) ExpensesForCategory(ctx context.Context, categoryName string, month, year *int) ([]core.ExpenseDetail, error) {
	query := `
		SELECT e.id, e.description, e.amount, c.name, e.date, e.payment_method
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE c.name = ?`
	args := []any{categoryName}

	switch {
	case month != nil && year != nil:
		query += " AND e.month = ? AND e.year = ?"
		args = append(args, *month, *year)
	case year != nil:
		query += " AND e.year = ?"
		args = append(args, *year)
	}
	query += " ORDER BY e.date DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses for category: %w", err)
	}
	defer rows.Close()

	return scanExpenseDetails(rows)
}

func scanExpenseDetails(rows *sql.Rows) ([]core.ExpenseDetail, error) {
	var details []core.ExpenseDetail
	for rows.Next() {
		var (
			d       core.ExpenseDetail
			dateStr string
			method  string
		)
		if err := rows.Scan(&d.ID, &d.Description, &d.Amount, &d.Category, &dateStr, &method); err != nil {
			return nil, fmt.Errorf("scan expense detail: %w", err)
		}
		date, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("stored expense date %q: %w", dateStr, err)
		}
		d.Date = date
		d.Method = core.PaymentMethod(method)
		details = append(details, d)
	}
	return details, rows.Err()
}
