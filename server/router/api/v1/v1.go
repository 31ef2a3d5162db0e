// Package v1 exposes the JSON HTTP boundary: inference queries and
// document ingestion.
package v1

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/mailsense/internal/profile"
	"github.com/hrygo/mailsense/server/retrieval"
	"github.com/hrygo/mailsense/store"
)

const (
	defaultCount     = 2
	defaultThreshold = 0.4

	// maxConcurrentIngests bounds concurrent embedding batches so a burst
	// of document creates cannot exhaust the embedding provider quota.
	maxConcurrentIngests = 4
)

type APIV1Service struct {
	Profile   *profile.Profile
	Store     *store.Store
	Retrieval *retrieval.Service

	ingestSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, retrievalService *retrieval.Service) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		Store:           store,
		Retrieval:       retrievalService,
		ingestSemaphore: semaphore.NewWeighted(maxConcurrentIngests),
	}
}

// RegisterRoutes mounts the API under /api/v1 and at the root, where
// existing clients still post.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")
	group.POST("/inference", s.Inference)
	group.POST("/documents", s.CreateDocument)

	echoServer.POST("/inference", s.Inference)
	echoServer.POST("/documents", s.CreateDocument)
}
