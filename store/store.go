// Package store provides database access to email records.
package store

import (
	"time"

	"github.com/hrygo/mailsense/internal/profile"
	"github.com/hrygo/mailsense/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// emailCache avoids repeated lookups while resolving ranked results;
	// the same email id tends to recur across consecutive queries.
	emailCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		emailCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        1000,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.emailCache.Close()
	return s.driver.Close()
}
