package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogsvc/internal/telemetry/tracing"
	"github.com/2beens/blogsvc/pkg"
)

// likes and comments are aggregated as JSON so a post is read in a single row
const selectPosts = `
	SELECT
		b.id, b.title, b.category, b.content, b.slug, b.featured_image, b.created_at,
		u.id, u.name, u.email, u.avatar,
		COALESCE((
			SELECT json_agg(l.user_id ORDER BY l.created_at)
			FROM blog_like l WHERE l.blog_id = b.id
		), '[]'::json),
		COALESCE((
			SELECT json_agg(json_build_object(
				'id', c.id, 'blogId', c.blog_id, 'userId', c.user_id, 'text', c.text,
				'name', c.name, 'avatar', c.avatar, 'createdAt', c.created_at
			) ORDER BY c.created_at)
			FROM blog_comment c WHERE c.blog_id = b.id
		), '[]'::json)
	FROM blog b
	JOIN users u ON u.id = b.user_id`

const commentColumns = `id, blog_id, user_id, text, name, avatar, created_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	if err := row.Scan(
		&p.ID, &p.Title, &p.Category, &p.Content, &p.Slug, &p.FeaturedImage, &p.CreatedAt,
		&p.Author.ID, &p.Author.Name, &p.Author.Email, &p.Author.Avatar,
		&p.Likes, &p.Comments,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) queryPosts(ctx context.Context, query string, args ...any) ([]*Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	return posts, rows.Err()
}

func (r *Repo) Add(ctx context.Context, post *Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.add")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	_, err = r.db.Exec(
		ctx,
		`
			INSERT INTO blog (id, user_id, title, category, content, slug, featured_image, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
		`,
		post.ID, post.Author.ID, post.Title, post.Category, post.Content,
		post.Slug, post.FeaturedImage, post.CreatedAt,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return fmt.Errorf("add blog, unknown author %s: %w", post.Author.ID, err)
		}
		return fmt.Errorf("add blog: %w", err)
	}

	return nil
}

func (r *Repo) List(ctx context.Context) (_ []*Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return r.queryPosts(ctx, selectPosts+` ORDER BY b.created_at DESC;`)
}

func (r *Repo) ListByOwner(ctx context.Context, ownerID uuid.UUID) (_ []*Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.list_by_owner")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("owner.id", ownerID.String()))

	return r.queryPosts(ctx, selectPosts+` WHERE b.user_id = $1 ORDER BY b.created_at DESC;`, ownerID)
}

func (r *Repo) Recent(ctx context.Context, limit int) (_ []*Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.recent")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("limit", limit))

	return r.queryPosts(ctx, selectPosts+` ORDER BY b.created_at DESC LIMIT $1;`, limit)
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (_ *Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.get")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("blog.id", id.String()))

	post, err := scanPost(r.db.QueryRow(ctx, selectPosts+` WHERE b.id = $1;`, id))
	if err != nil {
		if pkg.IsNoRowsError(err) {
			return nil, errBlogNotFound
		}
		return nil, fmt.Errorf("get blog %s: %w", id, err)
	}
	return post, nil
}

// Related returns other posts of the same category, newest first.
func (r *Repo) Related(ctx context.Context, post *Post, limit int) (_ []*Post, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.related")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	return r.queryPosts(
		ctx,
		selectPosts+` WHERE b.category = $1 AND b.id <> $2 ORDER BY b.created_at DESC LIMIT $3;`,
		post.Category, post.ID, limit,
	)
}

// ToggleLike removes the like of the user if present, adds it otherwise.
// Runs as one statement: the outer select sees the snapshot taken before both
// data-modifying CTEs, so the count is adjusted by what they changed.
// A concurrent insert of the same pair hits the primary key and is dropped.
func (r *Repo) ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (_ *LikeResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.toggle_like")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(
		attribute.String("blog.id", blogID.String()),
		attribute.String("user.id", userID.String()),
	)

	var res LikeResult
	err = r.db.QueryRow(
		ctx,
		`
			WITH removed AS (
				DELETE FROM blog_like
				WHERE blog_id = $1::uuid AND user_id = $2::uuid
				RETURNING 1
			), added AS (
				INSERT INTO blog_like (blog_id, user_id, created_at)
				SELECT $1::uuid, $2::uuid, now()
				WHERE NOT EXISTS (SELECT 1 FROM removed)
				ON CONFLICT DO NOTHING
				RETURNING 1
			)
			SELECT
				(SELECT COUNT(*) FROM added) > 0,
				(SELECT COUNT(*) FROM blog_like WHERE blog_id = $1::uuid)
					- (SELECT COUNT(*) FROM removed)
					+ (SELECT COUNT(*) FROM added);
		`,
		blogID, userID,
	).Scan(&res.Liked, &res.LikesCount)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, errBlogNotFound
		}
		return nil, fmt.Errorf("toggle like %s: %w", blogID, err)
	}

	return &res, nil
}

// AddComment stores the comment and returns the comment count of the post including it.
func (r *Repo) AddComment(ctx context.Context, comment *Comment) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.add_comment")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("blog.id", comment.BlogID.String()))

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	var count int
	err = r.db.QueryRow(
		ctx,
		`
			WITH inserted AS (
				INSERT INTO blog_comment (`+commentColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING 1
			)
			SELECT COUNT(*) + (SELECT COUNT(*) FROM inserted)
			FROM blog_comment WHERE blog_id = $2;
		`,
		comment.ID, comment.BlogID, comment.UserID, comment.Text,
		comment.Name, comment.Avatar, comment.CreatedAt,
	).Scan(&count)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return 0, errBlogNotFound
		}
		return 0, fmt.Errorf("add comment to %s: %w", comment.BlogID, err)
	}

	return count, nil
}

func (r *Repo) ListComments(ctx context.Context, blogID uuid.UUID) (_ []*Comment, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.list_comments")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("blog.id", blogID.String()))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+commentColumns+` FROM blog_comment WHERE blog_id = $1 ORDER BY created_at DESC;`,
		blogID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.UserID, &c.Text, &c.Name, &c.Avatar, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}

	return comments, rows.Err()
}

func (r *Repo) Summaries(ctx context.Context, ownerID uuid.UUID) (_ []*Summary, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.summaries")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("owner.id", ownerID.String()))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				b.id, b.title, b.created_at,
				(SELECT COUNT(*) FROM blog_like l WHERE l.blog_id = b.id),
				(SELECT COUNT(*) FROM blog_comment c WHERE c.blog_id = b.id)
			FROM blog b
			WHERE b.user_id = $1
			ORDER BY b.created_at DESC;
		`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []*Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.CreatedAt, &s.Likes, &s.Comments); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}

func (r *Repo) Count(ctx context.Context) (count int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.count")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM blog;`).Scan(&count)
	return count, err
}
