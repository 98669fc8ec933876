package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User 顾客账号
type User struct {
	ID        string
	Email     string // 统一小写
	Password  string // bcrypt哈希值
	Name      string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建用户
func NewUser(email, hashedPassword, name string) *User {
	now := time.Now()
	return &User{
		ID:        uuid.NewString(),
		Email:     NormalizeEmail(email),
		Password:  hashedPassword,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeEmail 邮箱大小写不敏感
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpdateProfile 修改资料
func (u *User) UpdateProfile(name, phone string) {
	if name != "" {
		u.Name = strings.TrimSpace(name)
	}
	if phone != "" {
		u.Phone = strings.TrimSpace(phone)
	}
	u.UpdatedAt = time.Now()
}
