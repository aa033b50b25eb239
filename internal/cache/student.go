package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/studentdesk/studentdesk/internal/model"
)

const (
	studentKeyPrefix = "student:"

	// DefaultStudentTTL is the TTL for cached students.
	DefaultStudentTTL = 10 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

func studentKey(id string) string {
	return studentKeyPrefix + id
}

// GetStudent retrieves a student from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetStudent(ctx context.Context, id string) (*model.CachedStudent, error) {
	result, err := c.client.HGetAll(ctx, studentKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	return decodeStudent(result)
}

// SetStudent stores a student in cache. The password hash is never cached.
func (c *Cache) SetStudent(ctx context.Context, student *model.Student, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultStudentTTL
	}
	key := studentKey(student.ID)

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, encodeStudent(student.ToCached()))
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache student: %w", err)
	}

	return nil
}

// DeleteStudent removes a student from cache.
func (c *Cache) DeleteStudent(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, studentKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete student from cache: %w", err)
	}
	return nil
}

func encodeStudent(s *model.CachedStudent) map[string]any {
	fields := map[string]any{
		"id":         s.ID,
		"email":      s.Email,
		"name":       s.Name,
		"created_at": strconv.FormatInt(s.CreatedAt, 10),
	}
	if s.UserID != "" {
		fields["user_id"] = s.UserID
	}
	if s.UpdatedAt != 0 {
		fields["updated_at"] = strconv.FormatInt(s.UpdatedAt, 10)
	}
	return fields
}

func decodeStudent(fields map[string]string) (*model.CachedStudent, error) {
	cached := &model.CachedStudent{
		ID:     fields["id"],
		Email:  fields["email"],
		Name:   fields["name"],
		UserID: fields["user_id"],
	}
	if cached.ID == "" {
		return nil, fmt.Errorf("cached student missing id")
	}

	var err error
	if cached.CreatedAt, err = strconv.ParseInt(fields["created_at"], 10, 64); err != nil {
		return nil, fmt.Errorf("cached student created_at: %w", err)
	}
	if v := fields["updated_at"]; v != "" {
		if cached.UpdatedAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("cached student updated_at: %w", err)
		}
	}

	return cached, nil
}
