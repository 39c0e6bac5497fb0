package blog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/users"
)

const (
	relatedPostsLimit = 3
	recentPostsLimit  = 5

	anonymousName = "Anonymous"
)

// Author is the owner projection attached to posts.
type Author struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Avatar string    `json:"avatar"`
}

func authorOf(u *users.User) Author {
	return Author{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
	}
}

type Post struct {
	ID            uuid.UUID   `json:"id"`
	Author        Author      `json:"author"`
	Title         string      `json:"title"`
	Category      string      `json:"category"`
	Content       string      `json:"content"`
	Slug          string      `json:"slug"`
	FeaturedImage string      `json:"featuredImage"`
	Likes         []uuid.UUID `json:"likes"`
	Comments      []*Comment  `json:"comments"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Comment author fields are captured when the comment is written and never change.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	BlogID    uuid.UUID `json:"blogId"`
	UserID    uuid.UUID `json:"userId"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

type SinglePost struct {
	Article         *Post      `json:"article"`
	RelatedArticles []*Post    `json:"relatedArticles"`
	Comments        []*Comment `json:"comments"`
}

// Summary is a dashboard row for a single post of the caller.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

type Dashboard struct {
	TotalUsers  int     `json:"totalUsers"`
	TotalBlogs  int     `json:"totalBlogs"`
	RecentBlogs []*Post `json:"recentBlogs"`
}

type PublishRequest struct {
	Title         string `json:"title"`
	Category      string `json:"category"`
	Content       string `json:"content"`
	FeaturedImage string `json:"featuredImage"`
}

func (r PublishRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" ||
		strings.TrimSpace(r.Category) == "" ||
		strings.TrimSpace(r.Content) == "" {
		return apperr.WithMessage(apperr.ErrValidation, "Please fill in all required fields")
	}
	return nil
}

var (
	errBlogNotFound  = apperr.WithMessage(apperr.ErrNotFound, "Blog not found")
	errInvalidBlogID = apperr.WithMessage(apperr.ErrInvalidID, "Invalid blog ID")
	errInvalidUserID = apperr.WithMessage(apperr.ErrInvalidID, "Invalid user ID")
	errEmptyComment  = apperr.WithMessage(apperr.ErrValidation, "Comment cannot be empty")
)

func parseID(raw string, invalid error) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, invalid
	}
	return id, nil
}
