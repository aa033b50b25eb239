package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/studentdesk/studentdesk/internal/form"
	"github.com/studentdesk/studentdesk/internal/handler/dto"
	"github.com/studentdesk/studentdesk/internal/metrics"
	"github.com/studentdesk/studentdesk/internal/model"
	"github.com/studentdesk/studentdesk/internal/service"
)

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestStudentHandler_Create(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/students",
		`{"name":"Ana","email":"ana@x.com","password":"secret"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.StudentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID == "" || resp.Name != "Ana" || resp.Email != "ana@x.com" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if len(svc.created) != 1 {
		t.Fatalf("CreateStudent called %d times, want 1", len(svc.created))
	}
	if svc.created[0].Password != "secret" {
		t.Error("password should be passed to the service unchanged")
	}
}

func TestStudentHandler_Create_ResponseOmitsPassword(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStudentService(), testRouterOptions{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/students",
		`{"name":"Ana","email":"ana@x.com","password":"secret"}`)

	if strings.Contains(rec.Body.String(), "secret") || strings.Contains(rec.Body.String(), "password") {
		t.Errorf("password leaked into response: %s", rec.Body.String())
	}
}

func TestStudentHandler_Create_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantFields map[string]string
	}{
		{
			name:       "missing name",
			body:       `{"name":"","email":"a@b.com","password":"x"}`,
			wantFields: map[string]string{form.FieldName: form.MsgRequired},
		},
		{
			name:       "malformed email",
			body:       `{"name":"Ana","email":"ana@","password":"x"}`,
			wantFields: map[string]string{form.FieldEmail: form.MsgInvalidEmail},
		},
		{
			name: "everything missing",
			body: `{}`,
			wantFields: map[string]string{
				form.FieldName:     form.MsgRequired,
				form.FieldEmail:    form.MsgRequired,
				form.FieldPassword: form.MsgRequired,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newFakeStudentService()
			recorder := metrics.NewInMemory()
			router := newTestRouter(t, svc, testRouterOptions{recorder: recorder})

			rec := doJSON(t, router, http.MethodPost, "/api/v1/students", tt.body)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected status 422, got %d", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Code != "VALIDATION_FAILED" {
				t.Errorf("code = %s, want VALIDATION_FAILED", resp.Code)
			}
			if len(resp.Fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", resp.Fields, tt.wantFields)
			}
			for field, msg := range tt.wantFields {
				if resp.Fields[field] != msg {
					t.Errorf("fields[%s] = %q, want %q", field, resp.Fields[field], msg)
				}
			}
			if len(svc.created) != 0 {
				t.Error("service must not be called for invalid input")
			}
			if got := recorder.Snapshot().FormsRejected[formAPICreate]; got != 1 {
				t.Errorf("FormsRejected[%s] = %d, want 1", formAPICreate, got)
			}
		})
	}
}

func TestStudentHandler_Create_InvalidJSON(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStudentService(), testRouterOptions{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/students", `{"name":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "INVALID_JSON" {
		t.Errorf("code = %s, want INVALID_JSON", resp.Code)
	}
}

func TestStudentHandler_Create_ServiceFailureIsGeneric(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.createErr = &service.StudentError{
		Kind: service.ErrCreateStudent,
		Err:  errors.New("duplicate key value violates unique constraint"),
	}
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/students",
		`{"name":"Ana","email":"ana@x.com","password":"secret"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error != "Não foi possível criar o estudante" {
		t.Errorf("error = %q", resp.Error)
	}
	if resp.Code != "CREATE_FAILED" {
		t.Errorf("code = %s, want CREATE_FAILED", resp.Code)
	}
	if strings.Contains(rec.Body.String(), "duplicate") {
		t.Error("cause must not be exposed to clients")
	}
}

func TestStudentHandler_Get(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.seed(&model.Student{
		ID:        "01HZX",
		Name:      "Ana",
		Email:     "ana@x.com",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/students/01HZX", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.StudentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "01HZX" || resp.Name != "Ana" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestStudentHandler_Get_NotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, newFakeStudentService(), testRouterOptions{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/students/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "STUDENT_NOT_FOUND" {
		t.Errorf("code = %s, want STUDENT_NOT_FOUND", resp.Code)
	}
}

func TestStudentHandler_Get_UnexpectedError(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.getErr = errors.New("connection reset")
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/students/01HZX", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "INTERNAL_ERROR" {
		t.Errorf("code = %s, want INTERNAL_ERROR", resp.Code)
	}
}

func TestStudentHandler_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         string
		body       string
		updateErr  error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "updates fields",
			id:         "01HZX",
			body:       `{"name":"Ana Maria","email":"ana@x.com","password":"new"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty password keeps the stored one",
			id:         "01HZX",
			body:       `{"name":"Ana Maria","email":"ana@x.com"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing student",
			id:         "missing",
			body:       `{"name":"Ana","email":"ana@x.com","password":"x"}`,
			wantStatus: http.StatusNotFound,
			wantCode:   "STUDENT_NOT_FOUND",
		},
		{
			name:       "invalid email",
			id:         "01HZX",
			body:       `{"name":"Ana","email":"nope","password":"x"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "store failure",
			id:         "01HZX",
			body:       `{"name":"Ana","email":"ana@x.com","password":"x"}`,
			updateErr:  &service.StudentError{Kind: service.ErrUpdateStudent, Err: errors.New("boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "UPDATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newFakeStudentService()
			svc.seed(&model.Student{ID: "01HZX", Name: "Ana", Email: "ana@x.com"})
			svc.updateErr = tt.updateErr
			router := newTestRouter(t, svc, testRouterOptions{})

			rec := doJSON(t, router, http.MethodPut, "/api/v1/students/"+tt.id, tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				if resp := decodeError(t, rec); resp.Code != tt.wantCode {
					t.Errorf("code = %s, want %s", resp.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestStudentHandler_Update_PassesUserID(t *testing.T) {
	t.Parallel()

	svc := newFakeStudentService()
	svc.seed(&model.Student{ID: "01HZX", Name: "Ana", Email: "ana@x.com"})
	router := newTestRouter(t, svc, testRouterOptions{})

	rec := doJSON(t, router, http.MethodPut, "/api/v1/students/01HZX",
		`{"name":"Ana","email":"ana@x.com","user_id":"user-42"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.updated) != 1 || svc.updated[0].UserID != "user-42" {
		t.Fatalf("user_id not forwarded: %+v", svc.updated)
	}

	var resp dto.StudentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "user-42" {
		t.Errorf("response user_id = %q, want user-42", resp.UserID)
	}
}
