package roles

import "errors"

var ErrNotFound = errors.New("role not found")

type (
	// Role is a named bundle of permissions granted to credentials through user_roles.
	Role struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Permissions []string `json:"permissions"`
	}
)
