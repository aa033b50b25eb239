// Package model defines domain entities for the application.
package model

import "time"

// Student represents a persisted student record.
// PasswordHash holds the Argon2id PHC string and is never serialized.
type Student struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	UserID       string     `json:"user_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// CreateStudentPayload is the input accepted by the student creation path.
// UserID is optional; the form flow never sets it.
type CreateStudentPayload struct {
	Email    string
	Name     string
	Password string
	UserID   string
}

// CachedStudent is the Redis representation of a student.
// The password hash is never cached.
type CachedStudent struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at,omitempty"`
}

// ToCached converts a Student to its cache representation.
func (s *Student) ToCached() *CachedStudent {
	cached := &CachedStudent{
		ID:        s.ID,
		Email:     s.Email,
		Name:      s.Name,
		UserID:    s.UserID,
		CreatedAt: s.CreatedAt.Unix(),
	}
	if s.UpdatedAt != nil {
		cached.UpdatedAt = s.UpdatedAt.Unix()
	}
	return cached
}

// ToStudent converts a cached entry back into a Student.
func (c *CachedStudent) ToStudent() *Student {
	student := &Student{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		UserID:    c.UserID,
		CreatedAt: time.Unix(c.CreatedAt, 0).UTC(),
	}
	if c.UpdatedAt != 0 {
		t := time.Unix(c.UpdatedAt, 0).UTC()
		student.UpdatedAt = &t
	}
	return student
}
