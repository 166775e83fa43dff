package domain

import (
	"math"
	"time"
)

const (
	MinScore            = 1
	MaxScore            = 5
	MaxReviewTextLength = 5000
)

// Rating is one user's score, and optional review, for a catalog item. A user
// holds at most one rating per item.
type Rating struct {
	ID               string      `json:"id"`
	UserID           string      `json:"user_id"`
	ContentID        string      `json:"content_id"`
	ContentType      ContentType `json:"content_type"`
	Score            int         `json:"score"`
	ReviewText       *string     `json:"review_text,omitempty"`
	IsApproved       bool        `json:"is_approved"`
	HelpfulnessCount int         `json:"helpfulness_count"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (r *Rating) Ref() ContentRef {
	return ContentRef{ContentID: r.ContentID, ContentType: r.ContentType}
}

// ValidScore reports whether s is within the accepted star range.
func ValidScore(s int) bool {
	return s >= MinScore && s <= MaxScore
}

// RatingAggregate is the derived pair stored on a catalog row.
type RatingAggregate struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int     `json:"total_ratings"`
}

// ComputeRatingAggregate returns the count and the mean of scores rounded
// half away from zero to two decimals. An empty set yields zero for both.
func ComputeRatingAggregate(scores []int) RatingAggregate {
	if len(scores) == 0 {
		return RatingAggregate{}
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	return RatingAggregate{
		AverageRating: math.Round(mean*100) / 100,
		TotalRatings:  len(scores),
	}
}

// HelpfulnessVote is a user's verdict on whether a review was helpful.
type HelpfulnessVote struct {
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
	IsHelpful bool      `json:"is_helpful"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
