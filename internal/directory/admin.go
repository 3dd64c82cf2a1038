package directory

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"finanzas/internal/core"
)

// Admin operations verify the caller's role themselves instead of trusting
// the presentation layer to hide the buttons.

// SetRole changes an account's role. The new role must belong to the
// closed {standard, admin} set; anything else fails before touching
// storage.
func (d *Directory) SetRole(ctx context.Context, actor core.Role, id int64, role core.Role) Result {
	if actor != core.RoleAdmin {
		return failure(ErrNotAuthorized.Error())
	}
	if err := role.Validate(); err != nil {
		return failure("invalid role: must be 'standard' or 'admin'")
	}

	res, err := d.db.ExecContext(ctx,
		"UPDATE accounts SET role = ? WHERE id = ?", string(role), id)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to change role",
			"account_id", id, "role", role, "error", err)
		return failure("role change failed, please try again")
	}
	if affected(res) == 0 {
		return failure("account not found")
	}

	return success(fmt.Sprintf("role changed to '%s' successfully", role))
}

// SetActive toggles whether an account may authenticate. Sessions already
// open elsewhere are unaffected; only future logins see the flag.
func (d *Directory) SetActive(ctx context.Context, actor core.Role, id int64, active bool) Result {
	if actor != core.RoleAdmin {
		return failure(ErrNotAuthorized.Error())
	}

	value := 0
	if active {
		value = 1
	}
	res, err := d.db.ExecContext(ctx,
		"UPDATE accounts SET active = ? WHERE id = ?", value, id)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to change active flag",
			"account_id", id, "active", active, "error", err)
		return failure("status change failed, please try again")
	}
	if affected(res) == 0 {
		return failure("account not found")
	}

	if active {
		return success("account activated successfully")
	}
	return success("account deactivated successfully")
}

// DeleteAccount removes the account row and physically destroys its
// finance store. The row delete is rolled back if the store cannot be
// removed, so the directory never points at a store it silently lost.
func (d *Directory) DeleteAccount(ctx context.Context, actor core.Role, id int64) Result {
	if actor != core.RoleAdmin {
		return failure(ErrNotAuthorized.Error())
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to begin account delete", "account_id", id, "error", err)
		return failure("account deletion failed, please try again")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		d.log.ErrorContext(ctx, "Failed to delete account row", "account_id", id, "error", err)
		return failure("account deletion failed, please try again")
	}
	if affected(res) == 0 {
		return failure("account not found")
	}

	if err := os.Remove(d.cfg.StorePath(id)); err != nil && !os.IsNotExist(err) {
		d.log.ErrorContext(ctx, "Failed to remove finance store",
			"account_id", id, "path", d.cfg.StorePath(id), "error", err)
		return failure("account deletion failed: could not remove financial data")
	}

	if err := tx.Commit(); err != nil {
		d.log.ErrorContext(ctx, "Failed to commit account delete", "account_id", id, "error", err)
		return failure("account deletion failed, please try again")
	}

	d.log.InfoContext(ctx, "Account deleted", "account_id", id)
	return success("account and its data deleted successfully")
}

// ListAccounts returns every account, newest registration first.
func (d *Directory) ListAccounts(ctx context.Context, actor core.Role) ([]core.Account, error) {
	if actor != core.RoleAdmin {
		return nil, ErrNotAuthorized
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, active, registered_at, last_access_at
		FROM accounts
		ORDER BY registered_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var (
			acc        core.Account
			hash       string
			role       string
			active     int
			registered string
			lastAccess sql.NullString
		)
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Email, &hash, &role, &active, &registered, &lastAccess); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		acc.Role = core.Role(role)
		acc.Active = active != 0
		if acc.RegisteredAt, err = parseTimestamp(registered); err != nil {
			return nil, fmt.Errorf("stored registration timestamp %q: %w", registered, err)
		}
		if lastAccess.Valid {
			t, err := parseTimestamp(lastAccess.String)
			if err != nil {
				return nil, fmt.Errorf("stored last access timestamp %q: %w", lastAccess.String, err)
			}
			acc.LastAccessAt = &t
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// AdminStats computes directory-wide counts. The trailing-30-day figure is
// derived from registration timestamps, never from a stored counter.
func (d *Directory) AdminStats(ctx context.Context, actor core.Role) (core.AdminStats, error) {
	if actor != core.RoleAdmin {
		return core.AdminStats{}, ErrNotAuthorized
	}

	var stats core.AdminStats
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM accounts", &stats.TotalAccounts},
		{"SELECT COUNT(*) FROM accounts WHERE active = 1", &stats.ActiveAccounts},
		{"SELECT COUNT(*) FROM accounts WHERE role = 'admin'", &stats.AdminAccounts},
		{"SELECT COUNT(*) FROM accounts WHERE date(registered_at) >= date('now', '-30 days')", &stats.RecentAccounts},
	}
	for _, q := range queries {
		if err := d.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return core.AdminStats{}, fmt.Errorf("admin stats: %w", err)
		}
	}
	stats.InactiveAccounts = stats.TotalAccounts - stats.ActiveAccounts

	return stats, nil
}

func affected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
