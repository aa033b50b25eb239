package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studentdesk/studentdesk/internal/form"
	"github.com/studentdesk/studentdesk/internal/handler/dto"
	"github.com/studentdesk/studentdesk/internal/metrics"
	"github.com/studentdesk/studentdesk/internal/model"
	"github.com/studentdesk/studentdesk/internal/service"
)

// Form names reported to metrics when validation rejects a submission.
const (
	formAPICreate  = "api_create"
	formAPIUpdate  = "api_update"
	formPageCreate = "page_create"
	formPageEdit   = "page_edit"
)

// StudentService is the subset of service.StudentService used by handlers.
type StudentService interface {
	CreateStudent(ctx context.Context, payload model.CreateStudentPayload) (*model.Student, error)
	GetStudent(ctx context.Context, id string) (*model.Student, error)
	UpdateStudent(ctx context.Context, id string, payload model.CreateStudentPayload) (*model.Student, error)
}

// StudentHandler handles the JSON student API.
type StudentHandler struct {
	svc     StudentService
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(svc StudentService, logger *slog.Logger, recorder metrics.Recorder) *StudentHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &StudentHandler{
		svc:     svc,
		logger:  logger,
		metrics: recorder,
	}
}

// Create handles POST /api/v1/students.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := form.Validate(req.FormValues()); len(errs) > 0 {
		h.metrics.IncFormRejected(formAPICreate)
		writeValidationError(w, errs)
		return
	}

	student, err := h.svc.CreateStudent(r.Context(), req.Payload())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToStudentResponse(student))
}

// Get handles GET /api/v1/students/{id}.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Student ID is required")
		return
	}

	student, err := h.svc.GetStudent(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToStudentResponse(student))
}

// Update handles PUT /api/v1/students/{id}. An empty password or user_id
// keeps the stored value; name and email are required.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Student ID is required")
		return
	}

	var req dto.StudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	errs := form.Validate(req.FormValues())
	if req.Password == "" {
		delete(errs, form.FieldPassword)
	}
	if len(errs) > 0 {
		h.metrics.IncFormRejected(formAPIUpdate)
		writeValidationError(w, errs)
		return
	}

	student, err := h.svc.UpdateStudent(r.Context(), id, req.Payload())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToStudentResponse(student))
}

// handleServiceError maps service errors to HTTP responses. Write failures
// carry a generic message; their causes were already logged by the service.
func (h *StudentHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found")
	case errors.Is(err, service.ErrCreateStudent):
		writeError(w, http.StatusInternalServerError, "CREATE_FAILED", service.ErrCreateStudent.Error())
	case errors.Is(err, service.ErrUpdateStudent):
		writeError(w, http.StatusInternalServerError, "UPDATE_FAILED", service.ErrUpdateStudent.Error())
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

func writeValidationError(w http.ResponseWriter, errs form.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
		Error:  "Validation failed",
		Code:   "VALIDATION_FAILED",
		Fields: errs,
	})
}
