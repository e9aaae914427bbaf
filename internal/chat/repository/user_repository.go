package repository

import (
	"context"
	"errors"

	"realtime_chat_service/internal/chat/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UserRepository member directory lookup
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*domain.UserProfile, error)
}

type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository create a UserRepository
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	row := r.db.QueryRow(ctx,
		"SELECT member_id, COALESCE(name, ''), email, COALESCE(profile_image, '') FROM member WHERE member_id = $1",
		userID)

	var u domain.UserProfile
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.ProfileImage); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
