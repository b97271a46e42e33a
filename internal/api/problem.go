package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/okrpulse/internal/drafting"
	"github.com/hyperengineering/okrpulse/internal/period"
	"github.com/hyperengineering/okrpulse/internal/progress"
	"github.com/hyperengineering/okrpulse/internal/store"
	"github.com/hyperengineering/okrpulse/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

const errorsBaseURI = "https://okrpulse.dev/errors/"

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest:          {errorsBaseURI + "bad-request", "Bad Request"},
	http.StatusUnauthorized:        {errorsBaseURI + "unauthorized", "Unauthorized"},
	http.StatusForbidden:           {errorsBaseURI + "forbidden", "Forbidden"},
	http.StatusNotFound:            {errorsBaseURI + "not-found", "Not Found"},
	http.StatusConflict:            {errorsBaseURI + "conflict", "Conflict"},
	http.StatusUnprocessableEntity: {errorsBaseURI + "validation-error", "Validation Error"},
	http.StatusTooManyRequests:     {errorsBaseURI + "rate-limit", "Too Many Requests"},
	http.StatusInternalServerError: {errorsBaseURI + "internal-error", "Internal Server Error"},
	http.StatusBadGateway:          {errorsBaseURI + "upstream-error", "Bad Gateway"},
	http.StatusServiceUnavailable:  {errorsBaseURI + "service-unavailable", "Service Unavailable"},
}

func lookupProblemType(status int) problemType {
	if pt, ok := problemTypes[status]; ok {
		return pt
	}
	return problemType{typeURI: errorsBaseURI + "unknown", title: http.StatusText(status)}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt := lookupProblemType(status)
	writeProblemBody(w, status, Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]
	writeProblemBody(w, http.StatusUnprocessableEntity, ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	})
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapStoreError converts domain errors to Problem Details responses.
func MapStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *progress.ValidationError
	var nferr *progress.NotFoundError

	switch {
	case errors.As(err, &verr):
		WriteProblemWithErrors(w, r, "Request contains invalid fields",
			[]validation.ValidationError{{Field: verr.Field, Message: verr.Message}})
	case errors.As(err, &nferr):
		WriteProblemWithErrors(w, r, "Request references an unknown key result",
			[]validation.ValidationError{{Field: "values", Message: nferr.Error()}})
	case errors.Is(err, period.ErrInvalidPeriod):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Invalid period")
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Resource not found")
	case errors.Is(err, store.ErrDuplicateReminder):
		WriteProblem(w, r, http.StatusConflict, "A pending reminder already exists")
	case errors.Is(err, store.ErrMinimumObjectives):
		WriteProblem(w, r, http.StatusUnprocessableEntity, "Archiving would leave fewer than the required number of objectives")
	case errors.Is(err, store.ErrForbidden):
		WriteProblem(w, r, http.StatusForbidden, "Not allowed")
	case errors.Is(err, drafting.ErrUnavailable):
		WriteProblem(w, r, http.StatusServiceUnavailable, "Drafting service unavailable")
	case errors.Is(err, drafting.ErrMalformedResponse):
		WriteProblem(w, r, http.StatusBadGateway, "Drafting service returned an unreadable response")
	default:
		// Never expose internal error details to client
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
