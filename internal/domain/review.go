package domain

// Review is a user's rating of a movie.
// Timestamps are kept as the backend's local-datetime strings, which carry no zone.
type Review struct {
	ID           int64   `json:"reviewId"`
	UserID       int64   `json:"userId"`
	MovieID      int64   `json:"movieId"`
	Rating       int64   `json:"rating"`
	ReviewText   *string `json:"reviewText,omitempty"`
	HelpfulCount int     `json:"helpfulCount"`
	UserName     string  `json:"userName,omitempty"`
	CreatedAt    *string `json:"createdAt,omitempty"`
	UpdatedAt    *string `json:"updatedAt,omitempty"`
}
