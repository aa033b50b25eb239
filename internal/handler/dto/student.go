// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/studentdesk/studentdesk/internal/form"
	"github.com/studentdesk/studentdesk/internal/model"
)

// StudentRequest is the body of POST and PUT /api/v1/students.
type StudentRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserID   string `json:"user_id,omitempty"`
}

// FormValues returns the fields checked by the form schema.
func (r StudentRequest) FormValues() form.UserFormValues {
	return form.UserFormValues{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
}

// Payload converts the request into the service input.
func (r StudentRequest) Payload() model.CreateStudentPayload {
	return model.CreateStudentPayload{
		Email:    r.Email,
		Name:     r.Name,
		Password: r.Password,
		UserID:   r.UserID,
	}
}

// StudentResponse represents a student in API responses.
type StudentResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	UserID    string     `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ErrorResponse represents an API error. Fields is set on validation
// failures and maps a field name to its message.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToStudentResponse converts a Student model to StudentResponse DTO.
func ToStudentResponse(s *model.Student) *StudentResponse {
	return &StudentResponse{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
