package v1

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// InferenceRequest is the body of POST /inference. Count and Threshold
// are pointers so an explicit zero is distinguishable from an absent
// field.
type InferenceRequest struct {
	Query     string   `json:"query"`
	Count     *int     `json:"count"`
	Threshold *float32 `json:"threshold"`
}

// Inference answers a natural-language query with the top-ranked indexed
// emails and their aggregated similarity scores.
func (s *APIV1Service) Inference(c echo.Context) error {
	request := &InferenceRequest{}
	if err := c.Bind(request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if strings.TrimSpace(request.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	count := defaultCount
	if request.Count != nil {
		count = *request.Count
	}
	threshold := float32(defaultThreshold)
	if request.Threshold != nil {
		threshold = *request.Threshold
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.Profile.RequestTimeout)
	defer cancel()

	requestID := uuid.NewString()
	answers, err := s.Retrieval.Query(ctx, request.Query, count, threshold)
	if err != nil {
		slog.Error("inference failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return echo.NewHTTPError(http.StatusInternalServerError, "inference failed")
	}

	slog.Info("inference served",
		slog.String("request_id", requestID),
		slog.Int("answers", len(answers)))
	return c.JSON(http.StatusOK, answers)
}
