package domain

import "time"

// CatalogItem is the subset of a game or program row this service reads and
// maintains. AverageRating, TotalRatings and DownloadCount are derived.
type CatalogItem struct {
	ID            string      `json:"id"`
	ContentType   ContentType `json:"content_type"`
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Category      string      `json:"category"`
	Tags          []string    `json:"tags"`
	AverageRating float64     `json:"average_rating"`
	TotalRatings  int         `json:"total_ratings"`
	DownloadCount int64       `json:"download_count"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Ref returns the item's content reference.
func (c *CatalogItem) Ref() ContentRef {
	return ContentRef{ContentID: c.ID, ContentType: c.ContentType}
}
