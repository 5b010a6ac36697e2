package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/educast/catalog/database"
	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	INSERT INTO users (user_id, name, email, role, password_hash, created_at, updated_at)
	VALUES (:user_id, :name, :email, :role, :password_hash, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, u); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}

	return u, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}

	return u, nil
}

// FetchInstructor resolves id to a user flagged as an instructor. A user that
// exists with another role is reported as not found.
func FetchInstructor(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1 AND role = $2`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, id, RoleInstructor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, database.ErrNotFound
		}
		return User{}, fmt.Errorf("selecting instructor[%s]: %w", id, err)
	}

	return u, nil
}

// Enroll adds the (course, user) pair to the enrollment set. Add-if-absent:
// re-enrolling is a no-op, so the operation is safe to retry.
func Enroll(ctx context.Context, db sqlx.ExtContext, courseID string, userID string) error {
	const q = `
	INSERT INTO enrollments (course_id, user_id, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT DO NOTHING`

	if _, err := db.ExecContext(ctx, q, courseID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("enrolling user[%s] in course[%s]: %w", userID, courseID, err)
	}

	return nil
}

// Unenroll retracts the course from the user's enrolled-course list.
// Remove-if-present: deleting an absent pair is a no-op.
func Unenroll(ctx context.Context, db sqlx.ExtContext, courseID string, userID string) error {
	const q = `DELETE FROM enrollments WHERE course_id = $1 AND user_id = $2`

	if _, err := db.ExecContext(ctx, q, courseID, userID); err != nil {
		return fmt.Errorf("unenrolling user[%s] from course[%s]: %w", userID, courseID, err)
	}

	return nil
}

func FetchEnrolledStudentIDs(ctx context.Context, db sqlx.ExtContext, courseID string) ([]string, error) {
	const q = `SELECT user_id FROM enrollments WHERE course_id = $1 ORDER BY created_at`

	ids := []string{}
	if err := sqlx.SelectContext(ctx, db, &ids, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting students of course[%s]: %w", courseID, err)
	}

	return ids, nil
}

func FetchEnrolledCourseIDs(ctx context.Context, db sqlx.ExtContext, userID string) ([]string, error) {
	const q = `SELECT course_id FROM enrollments WHERE user_id = $1 ORDER BY created_at DESC`

	ids := []string{}
	if err := sqlx.SelectContext(ctx, db, &ids, q, userID); err != nil {
		return nil, fmt.Errorf("selecting courses of user[%s]: %w", userID, err)
	}

	return ids, nil
}
