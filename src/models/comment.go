package models

type CommentAuthor struct {
	ID         int     `json:"id"`
	Username   string  `json:"username"`
	Avatar     *string `json:"avatar"`
	Permission *int    `json:"permission"`
}

type Comment struct {
	ID        int           `json:"id"`
	Content   string        `json:"content"`
	CreatedAt Time          `json:"createdAt"`
	UpdatedAt Time          `json:"updatedAt"`
	User      CommentAuthor `json:"user"`
}
