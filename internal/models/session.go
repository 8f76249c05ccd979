package models

// Session identifies the caller of a use case. Handlers build it from verified
// token claims and pass it down explicitly.
type Session struct {
	UserID   string
	Role     UserRole
	Email    string
	FullName string
}

// SessionFromClaims converts verified claims into a Session.
func SessionFromClaims(claims *JWTClaims) Session {
	if claims == nil {
		return Session{}
	}
	return Session{
		UserID:   claims.UserID,
		Role:     NormalizeRole(string(claims.Role)),
		Email:    claims.Email,
		FullName: claims.FullName,
	}
}

// Authenticated reports whether the session carries a user.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// IsFaculty reports whether the session belongs to a faculty member.
func (s Session) IsFaculty() bool {
	return s.Role == RoleFaculty
}

// IsStudent reports whether the session belongs to a student.
func (s Session) IsStudent() bool {
	return s.Role == RoleStudent
}
