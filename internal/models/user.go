package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// NormalizeRole lower-cases a raw role, defaulting to student when empty or unknown.
func NormalizeRole(raw string) UserRole {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return RoleStudent
	}
	return role
}

// User represents an account and its profile stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Username     *string    `db:"username" json:"username,omitempty"`
	Role         UserRole   `db:"role" json:"role"`
	Department   *string    `db:"department" json:"department,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Bio          *string    `db:"bio" json:"bio,omitempty"`
	AvatarURL    *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps a requested page and page size to the supported range.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// NewPagination describes the page a list query returned for the requested values.
func NewPagination(page, pageSize, total int) *Pagination {
	page, pageSize = NormalizePage(page, pageSize)
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}

// Profile is the user as presented to the UI, with the full name split in two.
type Profile struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	FullName   string     `json:"full_name"`
	Email      string     `json:"email"`
	Role       UserRole   `json:"role"`
	Username   *string    `json:"username,omitempty"`
	Department *string    `json:"department,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	Bio        *string    `json:"bio,omitempty"`
	AvatarURL  *string    `json:"avatar_url,omitempty"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SplitFullName returns the first word and the remaining words of a full name.
func SplitFullName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// ProfileFromUser builds the UI profile for a user.
func ProfileFromUser(u User) Profile {
	first, last := SplitFullName(u.FullName)
	role := u.Role
	if !role.Valid() {
		role = RoleStudent
	}
	return Profile{
		ID:         u.ID,
		FirstName:  first,
		LastName:   last,
		FullName:   u.FullName,
		Email:      u.Email,
		Role:       role,
		Username:   u.Username,
		Department: u.Department,
		Phone:      u.Phone,
		Bio:        u.Bio,
		AvatarURL:  u.AvatarURL,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
	}
}

// UpdateProfileRequest carries editable profile fields. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	Username   *string `json:"username" validate:"omitempty,max=60"`
	Department *string `json:"department" validate:"omitempty,max=120"`
	Phone      *string `json:"phone" validate:"omitempty,max=40"`
	Bio        *string `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL  *string `json:"avatar_url" validate:"omitempty,url"`
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=student faculty admin"`
}

// RoleCount is the number of active users holding a role.
type RoleCount struct {
	Role  UserRole `db:"role" json:"role"`
	Count int      `db:"count" json:"count"`
}
