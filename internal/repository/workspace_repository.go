package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-reservation/internal/model"
)

// WorkspaceRepo reads bookable workspaces.  The catalogue is maintained
// by an external admin tool, so only lookups are provided here.
type WorkspaceRepo struct {
	db *sql.DB
}

// NewWorkspaceRepo returns a new WorkspaceRepo bound to the given database.
func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo { return &WorkspaceRepo{db: db} }

const workspaceColumns = `id, name, type, price_per_hour, available,
						  discount_day, discount_month, discount_year, created_at`

// GetByID returns the workspace with the given id or ErrWorkspaceNotFound.
func (r *WorkspaceRepo) GetByID(ctx context.Context, id uint64) (*model.Workspace, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = ?`, id)
	return scanWorkspace(row)
}

// GetForUpdateTx loads the workspace and takes a row lock on it for the
// rest of tx.  Every booking for the same workspace goes through this
// lock, which serialises overlap checks per workspace while leaving
// other workspaces untouched.
func (r *WorkspaceRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Workspace, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = ? FOR UPDATE`, id)
	return scanWorkspace(row)
}

func scanWorkspace(row *sql.Row) (*model.Workspace, error) {
	var (
		w                model.Workspace
		day, month, year sql.NullInt64
	)
	err := row.Scan(&w.ID, &w.Name, &w.Type, &w.PricePerHour, &w.Available,
		&day, &month, &year, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, err
	}
	w.Discounts = model.TierOverrides{
		Day:   nullableInt(day),
		Month: nullableInt(month),
		Year:  nullableInt(year),
	}
	return &w, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
