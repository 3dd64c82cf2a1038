package directory

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// checkConcurrency bounds how many finance stores are inspected at once.
const checkConcurrency = 4

// StoreCheck is the integrity verdict for one account's finance store.
type StoreCheck struct {
	AccountID int64
	OK        bool
	Detail    string
}

// CheckStores runs a quick integrity check over every account's finance
// store. Stores that do not exist yet on disk pass; they are created
// lazily on first open.
func (d *Directory) CheckStores(ctx context.Context, actor core.Role) ([]StoreCheck, error) {
	if actor != core.RoleAdmin {
		return nil, ErrNotAuthorized
	}

	rows, err := d.db.QueryContext(ctx, "SELECT id FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	checks := make([]StoreCheck, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)

	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			checks[i] = d.checkStore(ctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return checks, nil
}

func (d *Directory) checkStore(ctx context.Context, accountID int64) StoreCheck {
	path := d.cfg.StorePath(accountID)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return StoreCheck{AccountID: accountID, OK: true, Detail: "store not created yet"}
	}

	db, err := storage.Open(path, d.cfg.BusyTimeout)
	if err != nil {
		return StoreCheck{AccountID: accountID, Detail: err.Error()}
	}
	defer db.Close()

	var verdict string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&verdict); err != nil {
		return StoreCheck{AccountID: accountID, Detail: err.Error()}
	}
	if verdict != "ok" {
		d.log.WarnContext(ctx, "Finance store failed integrity check",
			"account_id", accountID, "verdict", verdict)
		return StoreCheck{AccountID: accountID, Detail: verdict}
	}

	return StoreCheck{AccountID: accountID, OK: true, Detail: verdict}
}
