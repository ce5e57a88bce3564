package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

type searchService interface {
	Search(ctx context.Context, criteria application.SearchCriteria) ([]persistence.Room, error)
}

// SearchHandler serves the public room search.
type SearchHandler struct {
	service   searchService
	responder responder
	logger    *slog.Logger
}

func NewSearchHandler(service searchService, logger *slog.Logger) *SearchHandler {
	base := defaultLogger(logger)
	return &SearchHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := requestLogger(r.Context(), h.logger, "SearchHandler", "Search")

	criteria, fieldErrors := parseSearchQuery(r.URL.Query())
	if len(fieldErrors) > 0 {
		logger.WarnContext(r.Context(), "invalid search query", "error_kind", "validation")
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   statusMessage(http.StatusUnprocessableEntity),
			Errors:    fieldErrors,
		})
		return
	}

	rooms, err := h.service.Search(r.Context(), criteria)
	if err != nil {
		logger.WarnContext(r.Context(), "search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rooms)).DebugContext(r.Context(), "rooms searched")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

// parseSearchQuery converts query parameters into criteria, collecting a
// message for every parameter that cannot be parsed.
func parseSearchQuery(query url.Values) (application.SearchCriteria, map[string]string) {
	criteria := application.SearchCriteria{
		City: strings.TrimSpace(query.Get("city")),
		Type: strings.ToUpper(strings.TrimSpace(query.Get("type"))),
	}
	fieldErrors := make(map[string]string)

	parseRent := func(key string) *float64 {
		raw := strings.TrimSpace(query.Get(key))
		if raw == "" {
			return nil
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fieldErrors[key] = "must be a number"
			return nil
		}
		return &value
	}
	criteria.MinRent = parseRent("min_rent")
	criteria.MaxRent = parseRent("max_rent")

	parseDate := func(key string) scheduler.Date {
		d, err := scheduler.ParseDate(query.Get(key))
		if err != nil {
			fieldErrors[key] = "must be a date formatted as YYYY-MM-DD"
		}
		return d
	}
	criteria.StartDate = parseDate("start_date")
	criteria.EndDate = parseDate("end_date")

	return criteria, fieldErrors
}
