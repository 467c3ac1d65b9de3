package repository

import (
	"context"
	"database/sql"
	"errors"
)

type sqliteTicketStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteTicketStore stores the collection as one row of the ticket_documents table.
func NewSQLiteTicketStore(db *sql.DB, key string) TicketStore {
	return &sqliteTicketStore{db: db, key: key}
}

func (r *sqliteTicketStore) Load(ctx context.Context) (*Collection, error) {
	const query = `SELECT version, body FROM ticket_documents WHERE doc_key = ?`
	var (
		version int64
		body    []byte
	)
	if err := r.db.QueryRowContext(ctx, query, r.key).Scan(&version, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Collection{}, nil
		}
		return nil, err
	}
	tickets, err := decodeTickets(body)
	if err != nil {
		return nil, err
	}
	return &Collection{Version: version, Tickets: tickets}, nil
}

func (r *sqliteTicketStore) Save(ctx context.Context, c *Collection) error {
	body, err := encodeTickets(c.Tickets)
	if err != nil {
		return err
	}

	var res sql.Result
	if c.Version == 0 {
		res, err = r.db.ExecContext(ctx,
			`INSERT INTO ticket_documents (doc_key, version, body) VALUES (?, 1, ?) ON CONFLICT (doc_key) DO NOTHING`,
			r.key, string(body))
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE ticket_documents SET version = version + 1, body = ?, updated_at = CURRENT_TIMESTAMP WHERE doc_key = ? AND version = ?`,
			string(body), r.key, c.Version)
	}
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	c.Version++
	return nil
}

func (r *sqliteTicketStore) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
