package finance

import (
	"context"
	"database/sql"
	"fmt"

	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/storage"
)

// DefaultCategories is seeded into every newly provisioned store. Users
// may add, rename, or remove categories beyond this set.
var DefaultCategories = []core.Category{
	{Name: "Food", Description: "Groceries, food and drink"},
	{Name: "Transport", Description: "Transport and fuel"},
	{Name: "Utilities", Description: "Electricity, water, internet bills"},
	{Name: "Entertainment", Description: "Leisure, outings, hobbies"},
	{Name: "Health", Description: "Doctors, medicine, insurance"},
	{Name: "Education", Description: "Courses, books, materials"},
	{Name: "Housing", Description: "Rent, maintenance, furniture"},
	{Name: "Other", Description: "Miscellaneous spending"},
}

// Store is one account's isolated finance database: its categories,
// expenses, and income. Every Store is bound to exactly one account;
// account administration lives in the directory package.
type Store struct {
	db        *sql.DB
	accountID int64
	log       *log.Logger
}

// Open opens (creating if necessary) the finance store for the given
// account, runs pending migrations, and verifies the schema.
func Open(cfg *config.Config, accountID int64) (*Store, error) {
	path := cfg.StorePath(accountID)

	db, err := storage.Open(path, cfg.BusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("open finance store: %w", err)
	}

	if err := storage.RunMigrations(path, storage.FinanceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate finance store: %w", err)
	}

	s := &Store{
		db:        db,
		accountID: accountID,
		log:       log.New(log.DefaultConfig()).WithComponent(log.ComponentFinance),
	}

	if err := s.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seedDefaultCategories(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Provision creates and seeds an account's finance store, then releases
// it. Called by the directory at registration time.
func Provision(cfg *config.Config, accountID int64) error {
	s, err := Open(cfg, accountID)
	if err != nil {
		return err
	}
	return s.Close()
}

// EnsureSchema adds columns introduced after the initial table layout.
// It runs on every Open and is safe to call any number of times.
func (s *Store) EnsureSchema() error {
	if err := storage.EnsureColumn(s.db, "expenses", "payment_method", "TEXT NOT NULL DEFAULT 'card'"); err != nil {
		return fmt.Errorf("ensure finance schema: %w", err)
	}
	return nil
}

func (s *Store) seedDefaultCategories() error {
	for _, c := range DefaultCategories {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO categories (name, description) VALUES (?, ?)",
			c.Name, c.Description,
		)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	return nil
}

// AccountID returns the id of the account this store is bound to.
func (s *Store) AccountID() int64 {
	return s.accountID
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// AddExpense records a new expense. The month and year columns are derived
// from the date at write time. Returns false after logging on failure.
func (s *Store) AddExpense(ctx context.Context, description string, amount float64, categoryID int64, date core.Date, method core.PaymentMethod) bool {
	if method == "" {
		method = core.Card
	}
	e := core.Expense{Description: description, Amount: amount, CategoryID: categoryID, Date: date, Method: method}
	if err := e.Validate(); err != nil {
		s.log.WarnContext(ctx, "Rejected invalid expense",
			"account_id", s.accountID, "description", description, "error", err)
		return false
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (description, amount, category_id, date, month, year, payment_method)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		description, amount, categoryID, date.String(), date.Month(), date.Year(), string(method),
	)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to add expense",
			"account_id", s.accountID, "description", description, "error", err)
		return false
	}
	return true
}

// UpdateExpense replaces every field of an existing expense, recomputing
// month and year from the new date in the same statement.
func (s *Store) UpdateExpense(ctx context.Context, id int64, description string, amount float64, categoryID int64, date core.Date, method core.PaymentMethod) bool {
	if method == "" {
		method = core.Card
	}
	e := core.Expense{Description: description, Amount: amount, CategoryID: categoryID, Date: date, Method: method}
	if err := e.Validate(); err != nil {
		s.log.WarnContext(ctx, "Rejected invalid expense",
			"account_id", s.accountID, "expense_id", id, "error", err)
		return false
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET description = ?, amount = ?, category_id = ?,
		    date = ?, month = ?, year = ?, payment_method = ?
		WHERE id = ?`,
		description, amount, categoryID, date.String(), date.Month(), date.Year(), string(method), id,
	)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to update expense",
			"account_id", s.accountID, "expense_id", id, "error", err)
		return false
	}
	return rowsAffected(res) > 0
}

// DeleteExpense removes an expense permanently.
func (s *Store) DeleteExpense(ctx context.Context, id int64) bool {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete expense",
			"account_id", s.accountID, "expense_id", id, "error", err)
		return false
	}
	return rowsAffected(res) > 0
}

// ExpenseByID returns a single expense, reporting false when absent.
func (s *Store) ExpenseByID(ctx context.Context, id int64) (core.Expense, bool) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, amount, category_id, date, month, year, payment_method
		FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.ErrorContext(ctx, "Failed to read expense",
				"account_id", s.accountID, "expense_id", id, "error", err)
		}
		return core.Expense{}, false
	}
	return e, true
}

// AddIncome records a new income entry. The source is a free-text label,
// not a managed vocabulary.
func (s *Store) AddIncome(ctx context.Context, description string, amount float64, source string, date core.Date) bool {
	in := core.Income{Description: description, Amount: amount, Source: source, Date: date}
	if err := in.Validate(); err != nil {
		s.log.WarnContext(ctx, "Rejected invalid income",
			"account_id", s.accountID, "description", description, "error", err)
		return false
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO income (description, amount, source, date, month, year)
		VALUES (?, ?, ?, ?, ?, ?)`,
		description, amount, source, date.String(), date.Month(), date.Year(),
	)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to add income",
			"account_id", s.accountID, "description", description, "error", err)
		return false
	}
	return true
}

// UpdateIncome replaces every field of an existing income entry.
func (s *Store) UpdateIncome(ctx context.Context, id int64, description string, amount float64, source string, date core.Date) bool {
	in := core.Income{Description: description, Amount: amount, Source: source, Date: date}
	if err := in.Validate(); err != nil {
		s.log.WarnContext(ctx, "Rejected invalid income",
			"account_id", s.accountID, "income_id", id, "error", err)
		return false
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE income
		SET description = ?, amount = ?, source = ?, date = ?, month = ?, year = ?
		WHERE id = ?`,
		description, amount, source, date.String(), date.Month(), date.Year(), id,
	)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to update income",
			"account_id", s.accountID, "income_id", id, "error", err)
		return false
	}
	return rowsAffected(res) > 0
}

// DeleteIncome removes an income entry permanently.
func (s *Store) DeleteIncome(ctx context.Context, id int64) bool {
	res, err := s.db.ExecContext(ctx, "DELETE FROM income WHERE id = ?", id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete income",
			"account_id", s.accountID, "income_id", id, "error", err)
		return false
	}
	return rowsAffected(res) > 0
}

// IncomeByID returns a single income entry, reporting false when absent.
func (s *Store) IncomeByID(ctx context.Context, id int64) (core.Income, bool) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, amount, source, date, month, year
		FROM income WHERE id = ?`, id)

	var (
		in      core.Income
		dateStr string
	)
	err := row.Scan(&in.ID, &in.Description, &in.Amount, &in.Source, &dateStr, &in.Month, &in.Year)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.ErrorContext(ctx, "Failed to read income",
				"account_id", s.accountID, "income_id", id, "error", err)
		}
		return core.Income{}, false
	}
	if in.Date, err = core.ParseDate(dateStr); err != nil {
		s.log.ErrorContext(ctx, "Stored income date is malformed",
			"account_id", s.accountID, "income_id", id, "date", dateStr)
		return core.Income{}, false
	}
	return in, true
}

// Categories returns every category, ordered by name.
func (s *Store) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var (
			c    core.Category
			desc sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &desc); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Description = desc.String
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// AddCategory creates a new category. A duplicate name is a logged failure,
// not an error.
func (s *Store) AddCategory(ctx context.Context, name, description string) bool {
	if err := (core.Category{Name: name, Description: description}).Validate(); err != nil {
		s.log.WarnContext(ctx, "Rejected invalid category",
			"account_id", s.accountID, "name", name, "error", err)
		return false
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (name, description) VALUES (?, ?)", name, description)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to add category",
			"account_id", s.accountID, "name", name, "error", err)
		return false
	}
	return true
}

// EditCategory renames a category and replaces its description.
func (s *Store) EditCategory(ctx context.Context, id int64, name, description string) bool {
	if err := (core.Category{Name: name, Description: description}).Validate(); err != nil {
		s.log.WarnContext(ctx, "Rejected invalid category",
			"account_id", s.accountID, "category_id", id, "error", err)
		return false
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, description = ? WHERE id = ?", name, description, id)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to edit category",
			"account_id", s.accountID, "category_id", id, "name", name, "error", err)
		return false
	}
	return rowsAffected(res) > 0
}

// DeleteCategory removes a category, refusing while any expense still
// references it. The reference check and the delete run in one transaction.
func (s *Store) DeleteCategory(ctx context.Context, id int64) bool {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to begin category delete",
			"account_id", s.accountID, "category_id", id, "error", err)
		return false
	}
	defer tx.Rollback()

	var refs int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE category_id = ?", id).Scan(&refs); err != nil {
		s.log.ErrorContext(ctx, "Failed to count category references",
			"account_id", s.accountID, "category_id", id, "error", err)
		return false
	}
	if refs > 0 {
		s.log.WarnContext(ctx, "Category still referenced by expenses",
			"account_id", s.accountID, "category_id", id, "references", refs)
		return false
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to delete category",
			"account_id", s.accountID, "category_id", id, "error", err)
		return false
	}
	if rowsAffected(res) == 0 {
		return false
	}

	if err := tx.Commit(); err != nil {
		s.log.ErrorContext(ctx, "Failed to commit category delete",
			"account_id", s.accountID, "category_id", id, "error", err)
		return false
	}
	return true
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e       core.Expense
		dateStr string
		method  string
	)
	if err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.CategoryID, &dateStr, &e.Month, &e.Year, &method); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	e.Date = d
	e.Method = core.PaymentMethod(method)
	return e, nil
}

func rowsAffected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
