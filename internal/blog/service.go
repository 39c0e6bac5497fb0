package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/telemetry/tracing"
	"github.com/2beens/blogsvc/internal/users"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=blog_test

type blogRepo interface {
	Add(ctx context.Context, post *Post) error
	List(ctx context.Context) ([]*Post, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Post, error)
	Recent(ctx context.Context, limit int) ([]*Post, error)
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	Related(ctx context.Context, post *Post, limit int) ([]*Post, error)
	ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (*LikeResult, error)
	AddComment(ctx context.Context, comment *Comment) (int, error)
	ListComments(ctx context.Context, blogID uuid.UUID) ([]*Comment, error)
	Summaries(ctx context.Context, ownerID uuid.UUID) ([]*Summary, error)
	Count(ctx context.Context) (int, error)
}

type userCounter interface {
	Count(ctx context.Context) (int, error)
}

type Service struct {
	repo    blogRepo
	userCnt userCounter
	NowFunc func() time.Time
}

func NewService(repo blogRepo, userCnt userCounter) *Service {
	return &Service{
		repo:    repo,
		userCnt: userCnt,
		NowFunc: time.Now,
	}
}

func (s *Service) Publish(ctx context.Context, author *users.User, req PublishRequest) (_ *Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.publish")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if author == nil {
		return nil, apperr.ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	post := &Post{
		ID:            uuid.New(),
		Author:        authorOf(author),
		Title:         title,
		Category:      strings.TrimSpace(req.Category),
		Content:       req.Content,
		Slug:          slug.Make(title),
		FeaturedImage: req.FeaturedImage,
		Likes:         []uuid.UUID{},
		Comments:      []*Comment{},
		CreatedAt:     s.NowFunc(),
	}

	if err := s.repo.Add(ctx, post); err != nil {
		return nil, err
	}

	log.Debugf("blog %s published by %s", post.ID, author.ID)
	return post, nil
}

func (s *Service) List(ctx context.Context) (_ []*Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.repo.List(ctx)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) (_ []*Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.list_by_owner")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	id, err := parseID(ownerID, errInvalidUserID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, id)
}

func (s *Service) ToggleLike(ctx context.Context, userID uuid.UUID, postID string) (_ *LikeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.toggle_like")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	id, err := parseID(postID, errInvalidBlogID)
	if err != nil {
		return nil, err
	}

	res, err := s.repo.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("liked", res.Liked))

	return res, nil
}

// AddComment returns the stored comment and the new comment count of the post.
func (s *Service) AddComment(ctx context.Context, author *users.User, postID, text string) (_ *Comment, _ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.add_comment")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if author == nil {
		return nil, 0, apperr.ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, 0, errEmptyComment
	}
	id, err := parseID(postID, errInvalidBlogID)
	if err != nil {
		return nil, 0, err
	}

	name := author.Name
	if name == "" {
		name = anonymousName
	}
	comment := &Comment{
		ID:        uuid.New(),
		BlogID:    id,
		UserID:    author.ID,
		Text:      text,
		Name:      name,
		Avatar:    author.Avatar,
		CreatedAt: s.NowFunc(),
	}

	count, err := s.repo.AddComment(ctx, comment)
	if err != nil {
		return nil, 0, err
	}

	return comment, count, nil
}

func (s *Service) GetSingle(ctx context.Context, postID string) (_ *SinglePost, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.get_single")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	id, err := parseID(postID, errInvalidBlogID)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	related, err := s.repo.Related(ctx, post, relatedPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("related of %s: %w", id, err)
	}

	return &SinglePost{
		Article:         post,
		RelatedArticles: related,
		Comments:        post.Comments,
	}, nil
}

// ListComments returns the comments of a post, newest first.
func (s *Service) ListComments(ctx context.Context, postID string) (_ []*Comment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.list_comments")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if strings.TrimSpace(postID) == "" {
		return nil, apperr.WithMessage(apperr.ErrValidation, "Blog ID required")
	}
	id, err := parseID(postID, errInvalidBlogID)
	if err != nil {
		return nil, err
	}

	return s.repo.ListComments(ctx, id)
}

func (s *Service) Summaries(ctx context.Context, ownerID uuid.UUID) (_ []*Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.summaries")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return s.repo.Summaries(ctx, ownerID)
}

func (s *Service) Dashboard(ctx context.Context) (_ *Dashboard, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.blog.dashboard")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	totalUsers, err := s.userCnt.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	totalBlogs, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count blogs: %w", err)
	}
	recent, err := s.repo.Recent(ctx, recentPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent blogs: %w", err)
	}

	return &Dashboard{
		TotalUsers:  totalUsers,
		TotalBlogs:  totalBlogs,
		RecentBlogs: recent,
	}, nil
}
