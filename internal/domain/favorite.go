package domain

import "time"

type Favorite struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	CreatedAt   time.Time   `json:"created_at"`
}

// FavoriteAction is the requested end state of a toggle.
type FavoriteAction string

const (
	FavoriteAdd    FavoriteAction = "add"
	FavoriteRemove FavoriteAction = "remove"
)

func (a FavoriteAction) Valid() bool {
	return a == FavoriteAdd || a == FavoriteRemove
}

// FavoriteResult reports the state after a toggle and whether the toggle
// touched the store.
type FavoriteResult struct {
	Favorited bool `json:"favorited"`
	Changed   bool `json:"changed"`
}
