// Package custody is the boundary to the token-custody collaborator that
// actually creates, destroys and moves seat units. The ledger calls it
// exactly where seat counters change and never reads balances back into its
// own invariants.
package custody

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/course-ledger-api/pkg/errors"
)

// Vault abstracts seat-unit custody.
type Vault interface {
	MintBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error
	BurnBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error
	Burn(ctx context.Context, owner string, courseID int64, quantity int64) error
	Transfer(ctx context.Context, from, to string, courseID int64, quantity int64) error
}

// PostgresVault keeps per-owner, per-course seat-unit balances in a
// balance table.
type PostgresVault struct {
	db *sqlx.DB
}

// NewPostgresVault constructs the vault.
func NewPostgresVault(db *sqlx.DB) *PostgresVault {
	return &PostgresVault{db: db}
}

const upsertBalance = `INSERT INTO token_balances (owner_id, course_id, quantity) VALUES ($1, $2, $3)
    ON CONFLICT (owner_id, course_id) DO UPDATE SET quantity = token_balances.quantity + EXCLUDED.quantity`

const decrementBalance = `UPDATE token_balances SET quantity = quantity - $3
    WHERE owner_id = $1 AND course_id = $2 AND quantity >= $3`

// MintBatch credits newly created seat units to the owner.
func (v *PostgresVault) MintBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error {
	if len(courseIDs) != len(quantities) {
		return appErrors.ErrParamLengthMismatch
	}
	tx, err := v.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "mint batch failed")
	}
	defer tx.Rollback() //nolint:errcheck

	for i, courseID := range courseIDs {
		if _, err := tx.ExecContext(ctx, upsertBalance, owner, courseID, quantities[i]); err != nil {
			return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, fmt.Sprintf("mint %d units of course %d", quantities[i], courseID))
		}
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "mint batch failed")
	}
	return nil
}

// BurnBatch destroys seat units held by the owner.
func (v *PostgresVault) BurnBatch(ctx context.Context, owner string, courseIDs []int64, quantities []int64) error {
	if len(courseIDs) != len(quantities) {
		return appErrors.ErrParamLengthMismatch
	}
	tx, err := v.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "burn batch failed")
	}
	defer tx.Rollback() //nolint:errcheck

	for i, courseID := range courseIDs {
		if err := burnInTx(ctx, tx, owner, courseID, quantities[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "burn batch failed")
	}
	return nil
}

// Burn destroys seat units of a single course held by the owner.
func (v *PostgresVault) Burn(ctx context.Context, owner string, courseID int64, quantity int64) error {
	tx, err := v.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "burn failed")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := burnInTx(ctx, tx, owner, courseID, quantity); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "burn failed")
	}
	return nil
}

// Transfer moves seat units between owners.
func (v *PostgresVault) Transfer(ctx context.Context, from, to string, courseID int64, quantity int64) error {
	tx, err := v.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "transfer failed")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := burnInTx(ctx, tx, from, courseID, quantity); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertBalance, to, courseID, quantity); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, fmt.Sprintf("credit %s with course %d", to, courseID))
	}

	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "transfer failed")
	}
	return nil
}

func burnInTx(ctx context.Context, tx *sqlx.Tx, owner string, courseID int64, quantity int64) error {
	res, err := tx.ExecContext(ctx, decrementBalance, owner, courseID, quantity)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, fmt.Sprintf("burn %d units of course %d", quantity, courseID))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCustodyFailed.Code, appErrors.ErrCustodyFailed.Status, "burn failed")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrCustodyFailed, fmt.Sprintf("owner %s holds fewer than %d units of course %d", owner, quantity, courseID))
	}
	return nil
}
