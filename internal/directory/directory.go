// Package directory manages the shared account store: registration,
// credential verification, and account administration. Per-account
// financial data lives in the finance package; the two meet only at the
// account lifecycle (a finance store is provisioned with its account and
// destroyed with it).
package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"finanzas/internal/auth"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/finance"
	"finanzas/internal/log"
	"finanzas/internal/storage"
)

// ErrNotAuthorized is returned by admin reads invoked with a non-admin role.
var ErrNotAuthorized = errors.New("only administrators may perform this operation")

// Result is the outcome of a mutating directory operation. The message is
// ready for direct display; callers never synthesize their own wording for
// expected failures.
type Result struct {
	OK      bool
	Message string
}

func success(msg string) Result { return Result{OK: true, Message: msg} }
func failure(msg string) Result { return Result{Message: msg} }

// Directory is the single shared account store.
type Directory struct {
	cfg *config.Config
	db  *sql.DB
	log *log.Logger
}

// Open opens the account directory, creating and migrating it as needed.
func Open(cfg *config.Config) (*Directory, error) {
	path := cfg.DirectoryPath()

	db, err := storage.Open(path, cfg.BusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("open account directory: %w", err)
	}

	if err := storage.RunMigrations(path, storage.DirectorySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate account directory: %w", err)
	}

	return &Directory{
		cfg: cfg,
		db:  db,
		log: log.New(log.DefaultConfig()).WithComponent(log.ComponentDirectory),
	}, nil
}

func (d *Directory) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Register creates a new account with the standard role and provisions its
// finance store, seeded with the default categories. The account row and
// the store come into existence together or not at all.
func (d *Directory) Register(ctx context.Context, name, email, password string) Result {
	var existing int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id FROM accounts WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return failure("email is already registered")
	}
	if err != sql.ErrNoRows {
		d.log.ErrorContext(ctx, "Failed to check existing email", "email", email, "error", err)
		return failure("registration failed, please try again")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to hash password", "email", email, "error", err)
		return failure("registration failed, please try again")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to begin registration", "email", email, "error", err)
		return failure("registration failed, please try again")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (name, email, password_hash) VALUES (?, ?, ?)",
		name, email, hash)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to insert account", "email", email, "error", err)
		return failure("email is already registered")
	}

	id, err := res.LastInsertId()
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to read new account id", "email", email, "error", err)
		return failure("registration failed, please try again")
	}

	// Provision the finance store before the row becomes visible. If the
	// store cannot be created the registration is rolled back whole.
	if err := finance.Provision(d.cfg, id); err != nil {
		d.log.ErrorContext(ctx, "Failed to provision finance store",
			"account_id", id, "email", email, "error", err)
		os.Remove(d.cfg.StorePath(id))
		return failure("registration failed, please try again")
	}

	if err := tx.Commit(); err != nil {
		d.log.ErrorContext(ctx, "Failed to commit registration",
			"account_id", id, "email", email, "error", err)
		os.Remove(d.cfg.StorePath(id))
		return failure("registration failed, please try again")
	}

	d.log.InfoContext(ctx, "Account registered", "account_id", id, "email", email)
	return success("account registered successfully")
}

// Authenticate verifies the credentials and returns the matching account.
// Inactive accounts are indistinguishable from unknown ones to the caller;
// the distinction is only logged. A successful login updates the
// last-access timestamp before returning.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (core.Account, bool) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, active, registered_at, last_access_at
		FROM accounts WHERE email = ?`, email)

	acc, hash, err := scanAccount(row)
	if err != nil {
		if err != sql.ErrNoRows {
			d.log.ErrorContext(ctx, "Failed to look up account", "email", email, "error", err)
		}
		return core.Account{}, false
	}

	if !auth.CheckPassword(password, hash) {
		return core.Account{}, false
	}

	if !acc.Active {
		d.log.WarnContext(ctx, "Login attempt on inactive account",
			"account_id", acc.ID, "email", email)
		return core.Account{}, false
	}

	now := time.Now().UTC()
	if _, err := d.db.ExecContext(ctx,
		"UPDATE accounts SET last_access_at = ? WHERE id = ?",
		now.Format(timestampLayout), acc.ID); err != nil {
		d.log.ErrorContext(ctx, "Failed to update last access",
			"account_id", acc.ID, "error", err)
		return core.Account{}, false
	}
	acc.LastAccessAt = &now

	return acc, true
}

// ChangePassword replaces an account's password after verifying the old one.
func (d *Directory) ChangePassword(ctx context.Context, id int64, oldPassword, newPassword string) Result {
	var hash string
	err := d.db.QueryRowContext(ctx,
		"SELECT password_hash FROM accounts WHERE id = ?", id).Scan(&hash)
	if err == sql.ErrNoRows {
		return failure("account not found")
	}
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to read password hash", "account_id", id, "error", err)
		return failure("password change failed, please try again")
	}

	if !auth.CheckPassword(oldPassword, hash) {
		return failure("current password is incorrect")
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to hash new password", "account_id", id, "error", err)
		return failure("password change failed, please try again")
	}

	if _, err := d.db.ExecContext(ctx,
		"UPDATE accounts SET password_hash = ? WHERE id = ?", newHash, id); err != nil {
		d.log.ErrorContext(ctx, "Failed to store new password", "account_id", id, "error", err)
		return failure("password change failed, please try again")
	}

	return success("password changed successfully")
}

// GetAccount returns one account's public record.
func (d *Directory) GetAccount(ctx context.Context, id int64) (core.Account, bool) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, active, registered_at, last_access_at
		FROM accounts WHERE id = ?`, id)

	acc, _, err := scanAccount(row)
	if err != nil {
		if err != sql.ErrNoRows {
			d.log.ErrorContext(ctx, "Failed to read account", "account_id", id, "error", err)
		}
		return core.Account{}, false
	}
	return acc, true
}

const timestampLayout = "2006-01-02 15:04:05"

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func scanAccount(row *sql.Row) (core.Account, string, error) {
	var (
		acc        core.Account
		hash       string
		role       string
		active     int
		registered string
		lastAccess sql.NullString
	)
	err := row.Scan(&acc.ID, &acc.Name, &acc.Email, &hash, &role, &active, &registered, &lastAccess)
	if err != nil {
		return core.Account{}, "", err
	}

	acc.Role = core.Role(role)
	acc.Active = active != 0
	if acc.RegisteredAt, err = parseTimestamp(registered); err != nil {
		return core.Account{}, "", fmt.Errorf("stored registration timestamp %q: %w", registered, err)
	}
	if lastAccess.Valid {
		t, err := parseTimestamp(lastAccess.String)
		if err != nil {
			return core.Account{}, "", fmt.Errorf("stored last access timestamp %q: %w", lastAccess.String, err)
		}
		acc.LastAccessAt = &t
	}
	return acc, hash, nil
}
