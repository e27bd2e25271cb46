package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/libs/domain"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username already taken")
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Name         string
	Role         domain.Role
	CreatedAt    time.Time
}

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, password_hash, name, role, created_at`

func (r *UserRepository) Create(ctx context.Context, user User) (User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		user.Username, user.PasswordHash, user.Name, string(user.Role),
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// Update rewrites the profile fields; the password hash is left untouched.
func (r *UserRepository) Update(ctx context.Context, user User) (User, error) {
	return r.getOne(ctx, `
		UPDATE users SET username = $2, name = $3, role = $4
		WHERE id = $1
		RETURNING `+userColumns,
		user.ID, user.Username, user.Name, string(user.Role),
	)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt)
	if err != nil {
		return User{}, translate(err)
	}
	return user, nil
}

func translate(err error) error {
	switch {
	case db.IsNotFound(err):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	default:
		return fmt.Errorf("users query: %w", err)
	}
}
