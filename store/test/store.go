package test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrygo/mailsense/internal/profile"
	"github.com/hrygo/mailsense/store"
	"github.com/hrygo/mailsense/store/db"
)

// NewTestingStore creates a Store backed by a throwaway SQLite database.
func NewTestingStore(t *testing.T) *store.Store {
	t.Helper()

	dataDir := t.TempDir()
	p := &profile.Profile{
		Mode:                "dev",
		Driver:              "sqlite",
		Data:                dataDir,
		EmbeddingDimensions: 768,
	}
	require.NoError(t, p.Validate())

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	st := store.New(driver, p)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
