package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mailsense/store"
)

func TestEmailStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(t)

	t.Run("create and get", func(t *testing.T) {
		created, err := ts.CreateEmail(ctx, &store.Email{
			Subject:  "Refund policy",
			Sender:   "support@example.com",
			Date:     time.Unix(1700000000, 0),
			Body:     "We refund within 30 days.",
			HTML:     "<p>We refund within 30 days.</p>",
			Filename: "refund.html",
		})
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		assert.NotZero(t, created.CreatedTs)

		got, err := ts.GetEmail(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Refund policy", got.Subject)
		assert.Equal(t, "<p>We refund within 30 days.</p>", got.HTML)
		assert.Equal(t, int64(1700000000), got.Date.Unix())
	})

	t.Run("missing id returns ErrEmailNotFound", func(t *testing.T) {
		_, err := ts.GetEmail(ctx, 99999)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrEmailNotFound)
	})

	t.Run("create rejects empty subject", func(t *testing.T) {
		_, err := ts.CreateEmail(ctx, &store.Email{HTML: "<p>text</p>"})
		assert.Error(t, err)
	})

	t.Run("create rejects empty content", func(t *testing.T) {
		_, err := ts.CreateEmail(ctx, &store.Email{Subject: "s"})
		assert.Error(t, err)
	})

	t.Run("list with limit", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := ts.CreateEmail(ctx, &store.Email{Subject: "s", Body: "b"})
			require.NoError(t, err)
		}
		limit := 2
		list, err := ts.ListEmails(ctx, &store.FindEmail{Limit: &limit})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}
