// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE: THE CLOSURE / FACTORY PATTERN
// ───────────────────────────────────────────────────────
// A router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a service. To inject
// dependencies we use a factory function that accepts them and returns a
// function with the exact signature the router needs:
//
//	r.Post("/add", student.Add(svc, m))
//	//             ^^^^^^^^^^^^^^^^^^^
//	//             called ONCE at startup; the returned func runs per request.
//
// Handlers translate service errors into status codes and nothing else.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DuplicateEmailMessage is the body of every 409 response.
const DuplicateEmailMessage = "Email already exists"

// Service is the subset of service.StudentService the handlers need.
type Service interface {
	Add(ctx context.Context, student types.Student) error
	Update(ctx context.Context, id uuid.UUID, patch types.StudentPatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (types.Student, error)
	ListAll(ctx context.Context) ([]types.Student, error)
	Ping(ctx context.Context) error
}

// validator instances cache struct metadata, so share one.
var validate = validator.New()

var errInvalidID = errors.New("invalid id: must be a UUID")

// ─────────────────────────────────────────────────────────────────────────────
// List handles GET /list
// Returns a JSON array of all students, [] when there are none.
// ─────────────────────────────────────────────────────────────────────────────
func List(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.InfoContext(r.Context(), "getting all students")

		students, err := svc.ListAll(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Add handles POST /add
// Creates a new student with a freshly generated random id.
//
// Request body (JSON):
//
//	{ "name": "John Doe", "email": "john_doe@example.com" }
//
// Responses:
//
//	200 OK            empty body
//	400 Bad Request   text body "Invalid email address" or
//	                  "The given email is already used"; JSON on bad input
//	409 Conflict      text body "Email already exists"
//
// ─────────────────────────────────────────────────────────────────────────────
func Add(svc Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AddStudentRequest
		if !decode(w, r, &req) {
			return
		}

		student := types.Student{ID: uuid.New(), Name: req.Name, Email: req.Email}
		ctx := r.Context()

		err := svc.Add(ctx, student)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "added student", slog.String("id", student.ID.String()))
			m.ObserveWrite("add", metrics.OutcomeOK)
			response.WriteEmpty(w, http.StatusOK)

		case errors.Is(err, service.ErrInvalidEmail):
			slog.ErrorContext(ctx, "invalid email", slog.String("error", err.Error()))
			m.ObserveWrite("add", metrics.OutcomeInvalidEmail)
			response.WriteText(w, http.StatusBadRequest, err.Error())

		case errors.Is(err, service.ErrDuplicateEmail):
			slog.ErrorContext(ctx, "data integrity violation", slog.String("error", err.Error()))
			m.ObserveWrite("add", metrics.OutcomeDuplicate)
			response.WriteText(w, http.StatusConflict, DuplicateEmailMessage)

		default:
			slog.ErrorContext(ctx, "error adding student", slog.String("error", err.Error()))
			m.ObserveWrite("add", metrics.OutcomeInternalError)
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /update
// Changes name and/or email of an existing student. Blank fields are kept.
//
// Request body (JSON):
//
//	{ "id": "0b6c6f0e-...", "name": "", "email": "jane_doe@example.com" }
//
// Responses:
//
//	200 OK            empty body
//	400 Bad Request   empty body for an invalid email; JSON on bad input
//	404 Not Found     unknown id
//	409 Conflict      email taken concurrently
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateStudentRequest
		if !decode(w, r, &req) {
			return
		}

		id, err := uuid.Parse(req.ID)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidID))
			return
		}
		ctx := r.Context()
		slog.InfoContext(ctx, "updating student", slog.String("id", id.String()))

		err = svc.Update(ctx, id, req.Patch())
		switch {
		case err == nil:
			slog.InfoContext(ctx, "student updated", slog.String("id", id.String()))
			m.ObserveWrite("update", metrics.OutcomeOK)
			response.WriteEmpty(w, http.StatusOK)

		case errors.Is(err, service.ErrNotFound):
			slog.ErrorContext(ctx, "student not found", slog.String("error", err.Error()))
			m.ObserveWrite("update", metrics.OutcomeNotFound)
			response.WriteEmpty(w, http.StatusNotFound)

		case errors.Is(err, service.ErrInvalidEmail):
			slog.ErrorContext(ctx, "invalid email", slog.String("error", err.Error()))
			m.ObserveWrite("update", metrics.OutcomeInvalidEmail)
			response.WriteEmpty(w, http.StatusBadRequest)

		case errors.Is(err, service.ErrDuplicateEmail):
			slog.ErrorContext(ctx, "data integrity violation", slog.String("error", err.Error()))
			m.ObserveWrite("update", metrics.OutcomeDuplicate)
			response.WriteText(w, http.StatusConflict, DuplicateEmailMessage)

		default:
			slog.ErrorContext(ctx, "error updating student",
				slog.String("id", id.String()),
				slog.String("error", err.Error()))
			m.ObserveWrite("update", metrics.OutcomeInternalError)
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /delete/{id}
// Permanently removes a student record.
//
//	200 OK, empty body; 404 unknown id; 400 id is not a UUID
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(svc Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		ctx := r.Context()
		slog.InfoContext(ctx, "deleting student", slog.String("id", id.String()))

		err := svc.Delete(ctx, id)
		switch {
		case err == nil:
			slog.InfoContext(ctx, "student deleted", slog.String("id", id.String()))
			m.ObserveWrite("delete", metrics.OutcomeOK)
			response.WriteEmpty(w, http.StatusOK)

		case errors.Is(err, service.ErrNotFound):
			slog.ErrorContext(ctx, "student not found", slog.String("error", err.Error()))
			m.ObserveWrite("delete", metrics.OutcomeNotFound)
			response.WriteEmpty(w, http.StatusNotFound)

		default:
			slog.ErrorContext(ctx, "error deleting student",
				slog.String("id", id.String()),
				slog.String("error", err.Error()))
			m.ObserveWrite("delete", metrics.OutcomeInternalError)
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
		}
	}
}

// GetByID handles GET /student/{id}.
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		student, err := svc.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				response.WriteEmpty(w, http.StatusNotFound)
				return
			}
			slog.ErrorContext(r.Context(), "error getting student",
				slog.String("id", id.String()),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// Health handles GET /healthz.
func Health(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "storage unreachable", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, response.GeneralError(err))
			return
		}
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": response.StatusOK})
	}
}

// decode reads the JSON body into dst and runs struct validation. On
// failure it writes a 400 and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(validateErrs))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errInvalidID))
		return uuid.Nil, false
	}
	return id, true
}
