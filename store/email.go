package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrEmailNotFound indicates the requested email id does not resolve. It
// distinguishes index/store drift from infrastructure failure.
var ErrEmailNotFound = stderrors.New("email not found")

// Email is an ingested document owned by the record store.
type Email struct {
	ID        int64
	CreatedTs int64
	Subject   string
	Sender    string
	Date      time.Time
	Body      string
	HTML      string
	Filename  string
}

// FindEmail is the find condition for emails.
type FindEmail struct {
	ID    *int64
	Limit *int
}

// Validate checks the fields required to create an email record.
func (e *Email) Validate() error {
	if strings.TrimSpace(e.Subject) == "" {
		return errors.New("subject is required")
	}
	if strings.TrimSpace(e.HTML) == "" && strings.TrimSpace(e.Body) == "" {
		return errors.New("html or body is required")
	}
	return nil
}

// CreateEmail creates a new email record.
func (s *Store) CreateEmail(ctx context.Context, create *Email) (*Email, error) {
	if err := create.Validate(); err != nil {
		return nil, err
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	email, err := s.driver.CreateEmail(ctx, create)
	if err != nil {
		return nil, err
	}
	s.emailCache.Set(emailCacheKey(email.ID), email)
	return email, nil
}

// GetEmail gets an email by id, returning ErrEmailNotFound when the id
// does not resolve.
func (s *Store) GetEmail(ctx context.Context, id int64) (*Email, error) {
	if cached, ok := s.emailCache.Get(emailCacheKey(id)); ok {
		if email, ok := cached.(*Email); ok {
			return email, nil
		}
	}
	email, err := s.driver.GetEmail(ctx, id)
	if err != nil {
		return nil, err
	}
	s.emailCache.Set(emailCacheKey(id), email)
	return email, nil
}

// ListEmails lists email records.
func (s *Store) ListEmails(ctx context.Context, find *FindEmail) ([]*Email, error) {
	return s.driver.ListEmails(ctx, find)
}

func emailCacheKey(id int64) string {
	return fmt.Sprintf("email:%d", id)
}
