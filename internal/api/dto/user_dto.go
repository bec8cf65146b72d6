package dto

import "github.com/fixkit/repair-service/internal/domain"

// UserSummary describes a directory entry.
type UserSummary struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// NewUserSummary maps a directory user.
func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}
