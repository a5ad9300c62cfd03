package domain

type Role string

const (
	// RoleUser can write reviews and manage their own content.
	RoleUser Role = "user"
	// RoleAdmin manages the movie catalogue and other users' content.
	RoleAdmin Role = "admin"
)

func IsValidRole(r string) bool {
	return r == string(RoleUser) || r == string(RoleAdmin)
}

// ParseRole returns RoleUser for an empty value and rejects unknown roles.
func ParseRole(r string) (Role, error) {
	if r == "" {
		return RoleUser, nil
	}
	if !IsValidRole(r) {
		return "", ErrInvalidRole(r)
	}
	return Role(r), nil
}
