package serializer

import "github.com/sakif/snippets-api/internal/model"

// UserJSON is the wire representation of a user. Credentials never appear here.
type UserJSON struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Snippets []int64 `json:"snippets"`
}

// User renders a single user. Snippets is always a JSON array.
func User(u *model.User) UserJSON {
	ids := u.Snippets
	if ids == nil {
		ids = []int64{}
	}
	return UserJSON{
		ID:       u.ID,
		Username: u.Username,
		Snippets: ids,
	}
}

// Users renders a list of users.
func Users(list []model.User) []UserJSON {
	out := make([]UserJSON, 0, len(list))
	for i := range list {
		out = append(out, User(&list[i]))
	}
	return out
}
