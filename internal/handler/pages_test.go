package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/studentdesk/studentdesk/internal/form"
	"github.com/studentdesk/studentdesk/internal/metrics"
	"github.com/studentdesk/studentdesk/internal/model"
	"github.com/studentdesk/studentdesk/internal/service"
)

func postForm(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPage(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPageHandler_New(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStudentService(), testRouterOptions{})

	rec := getPage(t, router, "/student/new")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %s", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{form.HeadingCreate, `action="/student/new"`, ">" + form.LabelCreate + "<"} {
		if !strings.Contains(body, want) {
			t.Errorf("page should contain %q", want)
		}
	}
}

func TestPageHandler_Create_RedirectsToEdit(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := postForm(t, router, "/student/new", url.Values{
		"name":     {"Ana"},
		"email":    {"ana@x.com"},
		"password": {"secret"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/student/") || !strings.HasSuffix(loc, "/edit") {
		t.Errorf("Location = %s", loc)
	}

	if len(svc.created) != 1 {
		t.Fatalf("CreateStudent called %d times, want 1", len(svc.created))
	}
	got := svc.created[0]
	if got.Name != "Ana" || got.Email != "ana@x.com" || got.Password != "secret" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestPageHandler_Create_ValidationBlocksSubmit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		values    url.Values
		wantError string
	}{
		{
			name:      "missing name",
			values:    url.Values{"name": {""}, "email": {"a@b.com"}, "password": {"x"}},
			wantError: form.MsgRequired,
		},
		{
			name:      "malformed email",
			values:    url.Values{"name": {"Ana"}, "email": {"ana@"}, "password": {"x"}},
			wantError: form.MsgInvalidEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newFakeStudentService()
			recorder := metrics.NewInMemory()
			router := newTestRouter(t, svc, testRouterOptions{recorder: recorder})

			rec := postForm(t, router, "/student/new", tt.values)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `<p class="helper">`+tt.wantError+`</p>`) {
				t.Errorf("page should show %q", tt.wantError)
			}
			if len(svc.created) != 0 {
				t.Error("service must not be called for invalid input")
			}
			if got := recorder.Snapshot().FormsRejected[formPageCreate]; got != 1 {
				t.Errorf("FormsRejected[%s] = %d, want 1", formPageCreate, got)
			}
		})
	}
}

func TestPageHandler_Create_ServiceFailureShowsBanner(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.createErr = &service.StudentError{Kind: service.ErrCreateStudent, Err: errors.New("pool closed")}
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := postForm(t, router, "/student/new", url.Values{
		"name":     {"Ana"},
		"email":    {"ana@x.com"},
		"password": {"secret"},
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Não foi possível criar o estudante") {
		t.Error("banner should carry the generic message")
	}
	if strings.Contains(body, "pool closed") {
		t.Error("cause must not be rendered")
	}
	if !strings.Contains(body, `value="Ana"`) {
		t.Error("submitted values should be kept")
	}
}

func TestPageHandler_Edit_Prefills(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.seed(&model.Student{ID: "01HZX", Name: "Ana", Email: "ana@x.com"})
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := getPage(t, router, "/student/01HZX/edit")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{form.HeadingEdit, `value="Ana"`, `value="ana@x.com"`, `action="/student/01HZX/edit"`, ">" + form.LabelSave + "<"} {
		if !strings.Contains(body, want) {
			t.Errorf("page should contain %q", want)
		}
	}
	if rec.Header().Get("Refresh") != "" {
		t.Error("loaded page should not ask for a refresh")
	}
}

func TestPageHandler_Edit_NotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStudentService(), testRouterOptions{})

	rec := getPage(t, router, "/student/missing/edit")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestPageHandler_Edit_PrefillTimeoutRendersSkeleton(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.blockGet = true
	router := newTestRouter(t, svc, testRouterOptions{prefillTimeout: 20 * time.Millisecond})

	rec := getPage(t, router, "/student/01HZX/edit")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("Refresh") != "1" {
		t.Errorf("Refresh = %q, want 1", rec.Header().Get("Refresh"))
	}
	body := rec.Body.String()
	if !strings.Contains(body, `class="skeleton"`) {
		t.Error("page should render placeholders")
	}
	if strings.Contains(body, `<input`) {
		t.Error("inputs should be hidden while values load")
	}
}

func TestPageHandler_Edit_UnexpectedError(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.getErr = errors.New("connection reset")
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := getPage(t, router, "/student/01HZX/edit")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestPageHandler_Update(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.seed(&model.Student{ID: "01HZX", Name: "Ana", Email: "ana@x.com"})
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := postForm(t, router, "/student/01HZX/edit", url.Values{
		"name":     {"Ana Maria"},
		"email":    {"ana@x.com"},
		"password": {"new-secret"},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/student/01HZX/edit" {
		t.Errorf("Location = %s", loc)
	}
	if len(svc.updated) != 1 || svc.updated[0].Name != "Ana Maria" {
		t.Errorf("unexpected updates: %+v", svc.updated)
	}
}

func TestPageHandler_Update_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         string
		values     url.Values
		updateErr  error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation",
			id:         "01HZX",
			values:     url.Values{"name": {"Ana"}, "email": {"ana@"}, "password": {"x"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   form.MsgInvalidEmail,
		},
		{
			name:       "missing student",
			id:         "missing",
			values:     url.Values{"name": {"Ana"}, "email": {"ana@x.com"}, "password": {"x"}},
			wantStatus: http.StatusNotFound,
			wantBody:   msgStudentNotFound,
		},
		{
			name:       "store failure",
			id:         "01HZX",
			values:     url.Values{"name": {"Ana"}, "email": {"ana@x.com"}, "password": {"x"}},
			updateErr:  &service.StudentError{Kind: service.ErrUpdateStudent, Err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Não foi possível atualizar o estudante",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newFakeStudentService()
			svc.seed(&model.Student{ID: "01HZX", Name: "Ana", Email: "ana@x.com"})
			svc.updateErr = tt.updateErr
			router := newTestRouter(t, svc, testRouterOptions{})

			rec := postForm(t, router, "/student/"+tt.id+"/edit", tt.values)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body should contain %q", tt.wantBody)
			}
		})
	}
}

func TestBannerFor(t *testing.T) {
	t.Parallel()

	se := &service.StudentError{Kind: service.ErrCreateStudent, Err: errors.New("boom")}
	if got := bannerFor(se, service.ErrCreateStudent); got != service.ErrCreateStudent.Error() {
		t.Errorf("bannerFor(StudentError) = %q", got)
	}
	if got := bannerFor(errors.New("raw"), service.ErrUpdateStudent); got != service.ErrUpdateStudent.Error() {
		t.Errorf("bannerFor(raw) = %q", got)
	}
}

func TestRefreshSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want int
	}{
		{20 * time.Millisecond, 1},
		{2 * time.Second, 2},
		{2400 * time.Millisecond, 2},
	}
	for _, tt := range tests {
		if got := refreshSeconds(tt.in); got != tt.want {
			t.Errorf("refreshSeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
