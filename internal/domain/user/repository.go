package user

import (
	"context"
)

// Repository 用户仓储
type Repository interface {
	// Create 邮箱重复返回ErrEmailDuplicate
	Create(ctx context.Context, user *User) error

	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail email需已NormalizeEmail
	FindByEmail(ctx context.Context, email string) (*User, error)

	Update(ctx context.Context, user *User) error
}
