package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studentdesk/studentdesk/internal/form"
	"github.com/studentdesk/studentdesk/internal/metrics"
	"github.com/studentdesk/studentdesk/internal/model"
	"github.com/studentdesk/studentdesk/internal/service"
)

const (
	newPath            = "/student/new"
	msgStudentNotFound = "Estudante não encontrado"
)

// PageHandler serves the server-rendered student forms.
type PageHandler struct {
	svc            StudentService
	view           *form.View
	logger         *slog.Logger
	metrics        metrics.Recorder
	prefillTimeout time.Duration
}

// PageOption customizes a PageHandler.
type PageOption func(*PageHandler)

// WithPrefillTimeout bounds the student lookup of the edit page. When it
// expires the page renders placeholders and asks the browser to retry.
func WithPrefillTimeout(d time.Duration) PageOption {
	return func(h *PageHandler) { h.prefillTimeout = d }
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(svc StudentService, view *form.View, logger *slog.Logger, recorder metrics.Recorder, opts ...PageOption) *PageHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	h := &PageHandler{
		svc:            svc,
		view:           view,
		logger:         logger,
		metrics:        recorder,
		prefillTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// New handles GET /student/new.
func (h *PageHandler) New(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, form.New(form.Props{}), form.RenderOptions{Action: newPath})
}

// Create handles POST /student/new.
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var submitted *form.UserFormValues
	c := form.New(form.Props{
		OnSubmit: func(v form.UserFormValues) { submitted = &v },
	})
	opts := form.RenderOptions{Action: newPath}

	if !h.bind(w, r, c, opts) {
		return
	}
	if !c.Submit() {
		h.metrics.IncFormRejected(formPageCreate)
		h.render(w, r, http.StatusUnprocessableEntity, c, opts)
		return
	}

	student, err := h.svc.CreateStudent(r.Context(), model.CreateStudentPayload{
		Email:    submitted.Email,
		Name:     submitted.Name,
		Password: submitted.Password,
	})
	if err != nil {
		opts.Banner = bannerFor(err, service.ErrCreateStudent)
		h.render(w, r, http.StatusInternalServerError, c, opts)
		return
	}

	http.Redirect(w, r, editPath(student.ID), http.StatusSeeOther)
}

// Edit handles GET /student/{id}/edit.
func (h *PageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts := form.RenderOptions{Action: editPath(id)}

	ctx, cancel := context.WithTimeout(r.Context(), h.prefillTimeout)
	defer cancel()

	student, err := h.svc.GetStudent(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrStudentNotFound):
		http.Error(w, msgStudentNotFound, http.StatusNotFound)
		return
	case errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Context().Err() == nil:
		h.logger.WarnContext(r.Context(), "student prefill timed out", slog.String("student_id", id))
		w.Header().Set("Refresh", strconv.Itoa(refreshSeconds(h.prefillTimeout)))
		c := form.New(form.Props{
			InitialValues: &form.UserFormValues{},
			LoadingValues: true,
		})
		h.render(w, r, http.StatusOK, c, opts)
		return
	default:
		h.logger.ErrorContext(r.Context(), "failed to load student",
			slog.String("student_id", id),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	c := form.New(form.Props{
		InitialValues: &form.UserFormValues{
			Name:  student.Name,
			Email: student.Email,
		},
	})
	h.render(w, r, http.StatusOK, c, opts)
}

// Update handles POST /student/{id}/edit.
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts := form.RenderOptions{Action: editPath(id)}

	var submitted *form.UserFormValues
	c := form.New(form.Props{
		InitialValues: &form.UserFormValues{},
		OnSubmit:      func(v form.UserFormValues) { submitted = &v },
	})

	if !h.bind(w, r, c, opts) {
		return
	}
	if !c.Submit() {
		h.metrics.IncFormRejected(formPageEdit)
		h.render(w, r, http.StatusUnprocessableEntity, c, opts)
		return
	}

	_, err := h.svc.UpdateStudent(r.Context(), id, model.CreateStudentPayload{
		Email:    submitted.Email,
		Name:     submitted.Name,
		Password: submitted.Password,
	})
	switch {
	case err == nil:
		http.Redirect(w, r, editPath(id), http.StatusSeeOther)
	case errors.Is(err, service.ErrStudentNotFound):
		http.Error(w, msgStudentNotFound, http.StatusNotFound)
	default:
		opts.Banner = bannerFor(err, service.ErrUpdateStudent)
		h.render(w, r, http.StatusInternalServerError, c, opts)
	}
}

// bind copies the posted fields into the controller. It writes a 400 and
// returns false when the body cannot be parsed.
func (h *PageHandler) bind(w http.ResponseWriter, r *http.Request, c *form.Controller, opts form.RenderOptions) bool {
	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(r.Context(), "failed to parse form", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	for _, field := range []string{form.FieldName, form.FieldEmail, form.FieldPassword} {
		if err := c.SetField(field, r.PostForm.Get(field)); err != nil {
			h.render(w, r, http.StatusInternalServerError, c, opts)
			return false
		}
	}
	return true
}

// render buffers the page so a template failure still yields a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, c *form.Controller, opts form.RenderOptions) {
	var buf bytes.Buffer
	if err := h.view.Render(&buf, c, opts); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// bannerFor returns the message shown above a form after a failed write.
// Only the generic message is exposed, never the cause.
func bannerFor(err, kind error) string {
	var se *service.StudentError
	if errors.As(err, &se) {
		return se.Error()
	}
	return kind.Error()
}

func refreshSeconds(d time.Duration) int {
	if s := int(d.Round(time.Second) / time.Second); s > 1 {
		return s
	}
	return 1
}

func editPath(id string) string {
	return "/student/" + url.PathEscape(id) + "/edit"
}
