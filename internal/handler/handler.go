package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"luxbag/internal/auth"
	"luxbag/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dataResponse wraps list and detail payloads of the client API.
type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// messageResponse acknowledges a client action.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to do.
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps err to a response. Domain errors carry their own
// code and message; anything else is reported as a generic internal error.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg(fallback)
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: fallback,
		})
		return
	}

	status := statusFor(domainErr.Code)
	logger.Warn().
		Str("code", domainErr.Code).
		Int("status", status).
		Msg(domainErr.Message)

	writeJSON(w, status, model.ErrorResponse{
		Error:   domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
	})
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeOrderNotFound, model.ErrCodeCustomerNotFound, model.ErrCodeDesignNotFound:
		return http.StatusNotFound
	default:
		// Unknown products in a cart are bad input rather than a missing
		// resource, so PRODUCT_NOT_FOUND lands here too.
		return http.StatusBadRequest
	}
}

// decodeJSON decodes the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// principal returns the caller attached by the principal middleware. The
// zero Principal stands for an anonymous caller.
func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

// pagination reads limit and offset query parameters. Missing values are
// zero and left for the service to default.
func pagination(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil {
			return 0, 0, model.ValidationError("limit", "must be an integer")
		}
	}
	if s := q.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil {
			return 0, 0, model.ValidationError("offset", "must be an integer")
		}
	}
	return limit, offset, nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, model.ValidationError(name, "must be a UUID")
	}
	return id, nil
}
