package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateSchema creates the tables if they are missing. It is idempotent.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*eventRow)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewCreateTable().
			Model((*attendeeRow)(nil)).
			IfNotExists().
			ForeignKey(`("event_id") REFERENCES "events" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewCreateIndex().
			Model((*attendeeRow)(nil)).
			Index("attendees_event_id_idx").
			Column("event_id", "id").
			IfNotExists().
			Exec(ctx)
		return err
	}); err != nil {
		return fmt.Errorf("CreateSchema: %w", err)
	}

	return nil
}
