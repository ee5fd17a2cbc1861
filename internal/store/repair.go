package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/starford/arbor/internal/models"
)

type repairRow struct {
	id        string
	parentID  string
	position  int
	path      string
	depth     int
	createdAt string
	orphan    bool
}

// Repair walks the tree from the root and brings every derived column back
// in line with the parent links:
//   - sibling positions are renumbered to 0..k-1 keeping their order
//   - path and depth are recomputed
//   - notes whose parent no longer exists are re-attached under the root
//
// It returns the number of rows it rewrote.
func (db *DB) Repair(ctx context.Context, logger *slog.Logger) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx,
		`SELECT id, COALESCE(parent_id, ''), position, path, depth, created_at FROM notes`)
	if err != nil {
		return 0, fmt.Errorf("store: repair scan: %w", err)
	}
	all := make(map[string]*repairRow)
	for rows.Next() {
		r := &repairRow{}
		if err := rows.Scan(&r.id, &r.parentID, &r.position, &r.path, &r.depth, &r.createdAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("store: repair scan: %w", err)
		}
		all[r.id] = r
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("store: repair scan: %w", err)
	}

	children := make(map[string][]*repairRow)
	for _, r := range all {
		if r.id == models.RootID {
			continue
		}
		if _, ok := all[r.parentID]; !ok || r.parentID == "" {
			logger.Warn("repair: orphan re-attached to root", slog.String("id", r.id))
			r.parentID = models.RootID
			r.position = 1 << 30
			r.orphan = true
		}
		children[r.parentID] = append(children[r.parentID], r)
	}

	fixed := 0
	var walk func(parent *repairRow) error
	walk = func(parent *repairRow) error {
		kids := children[parent.id]
		sort.SliceStable(kids, func(i, j int) bool {
			if kids[i].position != kids[j].position {
				return kids[i].position < kids[j].position
			}
			return kids[i].createdAt < kids[j].createdAt
		})
		for i, k := range kids {
			path := parent.path + "." + k.id
			depth := parent.depth + 1
			if k.position != i || k.path != path || k.depth != depth || k.orphan {
				if _, err := tx.ExecContext(ctx,
					`UPDATE notes SET parent_id = ?, position = ?, path = ?, depth = ? WHERE id = ?`,
					k.parentID, i, path, depth, k.id); err != nil {
					return fmt.Errorf("store: repair note %s: %w", k.id, err)
				}
				fixed++
			}
			k.position, k.path, k.depth = i, path, depth
			if err := walk(k); err != nil {
				return err
			}
		}
		return nil
	}

	root, ok := all[models.RootID]
	if !ok {
		return 0, fmt.Errorf("store: repair: root missing")
	}
	if root.path != models.RootID || root.depth != 0 {
		if _, err := tx.ExecContext(ctx, `UPDATE notes SET path = ?, depth = 0, position = 0 WHERE id = ?`,
			models.RootID, models.RootID); err != nil {
			return 0, fmt.Errorf("store: repair root: %w", err)
		}
		root.path, root.depth = models.RootID, 0
		fixed++
	}
	if err := walk(root); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	if fixed > 0 {
		logger.Info("repair: tree normalized", slog.Int("rows", fixed))
	}
	return fixed, nil
}
