package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/mailsense/store"
)

// CreateEmail creates a new email record.
func (d *DB) CreateEmail(ctx context.Context, create *store.Email) (*store.Email, error) {
	stmt := `
		INSERT INTO email (created_ts, subject, sender, date_ts, body, html, filename)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.CreatedTs,
		create.Subject,
		create.Sender,
		create.Date.Unix(),
		create.Body,
		create.HTML,
		create.Filename,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create email")
	}
	return create, nil
}

// GetEmail gets an email by id.
func (d *DB) GetEmail(ctx context.Context, id int64) (*store.Email, error) {
	list, err := d.ListEmails(ctx, &store.FindEmail{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.Wrapf(store.ErrEmailNotFound, "id %d", id)
	}
	return list[0], nil
}

// ListEmails lists email records.
func (d *DB) ListEmails(ctx context.Context, find *store.FindEmail) ([]*store.Email, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}

	query := `
		SELECT id, created_ts, subject, sender, date_ts, body, html, filename
		FROM email
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id
	`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list emails")
	}
	defer rows.Close()

	list := []*store.Email{}
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, email)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate emails")
	}
	return list, nil
}

func scanEmail(rows *sql.Rows) (*store.Email, error) {
	var email store.Email
	var dateTs int64
	err := rows.Scan(
		&email.ID,
		&email.CreatedTs,
		&email.Subject,
		&email.Sender,
		&dateTs,
		&email.Body,
		&email.HTML,
		&email.Filename,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan email")
	}
	email.Date = time.Unix(dateTs, 0)
	return &email, nil
}
