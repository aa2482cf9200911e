package dto

import "time"

type CreateTweetRequest struct {
	Content string `json:"content" validate:"required"`
}

type UpdateTweetRequest struct {
	Content string `json:"content" validate:"required"`
}

type TweetResponse struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TweetsListResponse struct {
	Items []TweetResponse `json:"items"`
}

type DeleteTweetResponse struct {
	OK bool `json:"ok"`
}
