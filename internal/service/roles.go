package service

import "go-contacts-api/internal/model"

// RequireRole is the role gate: a pure predicate that returns the identity
// unchanged on match and model.ErrForbidden otherwise.
func RequireRole(user *model.PublicUser, role model.UserRole) (*model.PublicUser, error) {
	if user == nil || user.Role != role {
		return nil, model.ErrForbidden
	}
	return user, nil
}
