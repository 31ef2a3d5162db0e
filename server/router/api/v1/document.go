package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/mailsense/store"
)

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	Subject  string `json:"subject"`
	Sender   string `json:"sender"`
	Date     string `json:"date"` // RFC 3339, optional
	Body     string `json:"body"`
	HTML     string `json:"html"`
	Filename string `json:"filename"`
}

// CreateDocument creates an email record and ingests its markup through
// the segmentation/embedding/indexing pipeline. Validation failures
// reject the request before any side effect.
func (s *APIV1Service) CreateDocument(c echo.Context) error {
	request := &CreateDocumentRequest{}
	if err := c.Bind(request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	email := &store.Email{
		Subject:  request.Subject,
		Sender:   request.Sender,
		Body:     request.Body,
		HTML:     request.HTML,
		Filename: request.Filename,
	}
	if request.Date != "" {
		date, err := time.Parse(time.RFC3339, request.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "date must be RFC 3339"})
		}
		email.Date = date
	}
	if err := email.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.Profile.RequestTimeout)
	defer cancel()

	requestID := uuid.NewString()
	created, err := s.Store.CreateEmail(ctx, email)
	if err != nil {
		slog.Error("failed to create email",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create document")
	}

	if err := s.ingestSemaphore.Acquire(ctx, 1); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "ingestion timed out")
	}
	defer s.ingestSemaphore.Release(1)

	if err := s.Retrieval.Ingest(ctx, created); err != nil {
		slog.Error("failed to ingest email",
			slog.String("request_id", requestID),
			slog.Int64("email_id", created.ID),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to ingest document")
	}

	return c.JSON(http.StatusCreated, map[string]int64{"id": created.ID})
}
