package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/obralex/obralex/internal/dataset"
	"github.com/obralex/obralex/internal/rules"
	"github.com/obralex/obralex/internal/store"
	"github.com/obralex/obralex/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusUnauthorized: {
		typeURI: "https://obralex.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusBadRequest: {
		typeURI: "https://obralex.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://obralex.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusInternalServerError: {
		typeURI: "https://obralex.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
	http.StatusUnprocessableEntity: {
		typeURI: "https://obralex.dev/errors/validation-error",
		title:   "Validation Error",
	},
	http.StatusConflict: {
		typeURI: "https://obralex.dev/errors/conflict",
		title:   "Conflict",
	},
	http.StatusRequestEntityTooLarge: {
		typeURI: "https://obralex.dev/errors/record-too-large",
		title:   "Record Too Large",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://obralex.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 422 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	pt := problemTypes[http.StatusUnprocessableEntity]

	p := ProblemWithErrors{
		Problem: Problem{
			Type:     pt.typeURI,
			Title:    pt.title,
			Status:   http.StatusUnprocessableEntity,
			Detail:   detail,
			Instance: r.URL.Path,
		},
		Errors: errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapDomainError converts store and rules errors to Problem Details
// responses. Internal details are never exposed to the client.
func MapDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var unknownModality *rules.ErrUnknownModality
	var datasetErr *dataset.ValidationError
	switch {
	case errors.Is(err, store.ErrProjectNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Project not found")
	case errors.Is(err, store.ErrProjectExists):
		WriteProblem(w, r, http.StatusConflict, "Project already exists")
	case errors.Is(err, store.ErrRecordTooLarge):
		WriteProblem(w, r, http.StatusRequestEntityTooLarge,
			"Project record exceeds the configured size limit; detach evidence and retry")
	case errors.Is(err, rules.ErrUndetermined):
		WriteProblem(w, r, http.StatusUnprocessableEntity,
			"Modality could not be determined from the given answers")
	case errors.As(err, &unknownModality):
		WriteProblem(w, r, http.StatusUnprocessableEntity, unknownModality.Error())
	case errors.As(err, &datasetErr):
		WriteProblem(w, r, http.StatusUnprocessableEntity, datasetErr.Error())
	default:
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
	}
}
