//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/blogsvc/internal/blog"
)

func (s *IntegrationTestSuite) publishPost(ctx context.Context, u *testUser, category string) *blog.Post {
	status, body := s.doJSON(ctx, "POST", "/api/blogs/publish", u.token, blog.PublishRequest{
		Title:    gofakeit.Sentence(5),
		Category: category,
		Content:  gofakeit.Paragraph(2, 3, 12, " "),
	})
	require.Equal(s.T(), http.StatusCreated, status, string(body))

	var publishResp blog.PublishResponse
	s.decode(body, &publishResp)
	require.NotNil(s.T(), publishResp.Blog)
	return publishResp.Blog
}

func (s *IntegrationTestSuite) getPost(ctx context.Context, id uuid.UUID) *blog.SinglePost {
	status, body := s.doJSON(ctx, "GET", "/api/blogs/"+id.String(), "", nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var single blog.SinglePost
	s.decode(body, &single)
	return &single
}

func (s *IntegrationTestSuite) TestPublishAndRead() {
	ctx := context.Background()
	author := s.registerUser(ctx)
	category := "cat-" + uuid.NewString()

	status, body := s.doJSON(ctx, "POST", "/api/blogs/publish", author.token, blog.PublishRequest{Title: "only a title"})
	assert.Equal(s.T(), http.StatusBadRequest, status)
	assert.JSONEq(s.T(), `{"success":false,"message":"Please fill in all required fields"}`, string(body))

	first := s.publishPost(ctx, author, category)
	second := s.publishPost(ctx, author, category)
	assert.Equal(s.T(), author.profile.ID, first.Author.ID)
	assert.NotEmpty(s.T(), first.Slug)
	assert.Empty(s.T(), first.Likes)
	assert.Empty(s.T(), first.Comments)

	single := s.getPost(ctx, first.ID)
	assert.Equal(s.T(), first.Title, single.Article.Title)
	assert.Equal(s.T(), author.profile.Email, single.Article.Author.Email)
	require.Len(s.T(), single.RelatedArticles, 1)
	assert.Equal(s.T(), second.ID, single.RelatedArticles[0].ID)
	assert.Empty(s.T(), single.Comments)

	status, body = s.doJSON(ctx, "GET", "/api/blogs", "", nil)
	require.Equal(s.T(), http.StatusOK, status)
	var listResp blog.PostsResponse
	s.decode(body, &listResp)
	assert.Equal(s.T(), len(listResp.Blogs), listResp.Count)
	require.GreaterOrEqual(s.T(), listResp.Count, 2)
	for i := 1; i < len(listResp.Blogs); i++ {
		assert.False(s.T(), listResp.Blogs[i].CreatedAt.After(listResp.Blogs[i-1].CreatedAt), "newest first")
	}

	// owner listings, by token and by id
	for _, path := range []string{"/api/blogs/user", "/api/blogs/user/" + author.profile.ID.String()} {
		status, body = s.doJSON(ctx, "GET", path, author.token, nil)
		require.Equal(s.T(), http.StatusOK, status, path)
		s.decode(body, &listResp)
		require.Equal(s.T(), 2, listResp.Count, path)
		assert.Equal(s.T(), second.ID, listResp.Blogs[0].ID)
		assert.Equal(s.T(), first.ID, listResp.Blogs[1].ID)
	}

	status, body = s.doJSON(ctx, "GET", "/api/blogs/not-an-id", "", nil)
	assert.Equal(s.T(), http.StatusBadRequest, status)
	assert.JSONEq(s.T(), `{"success":false,"message":"Invalid blog ID"}`, string(body))

	status, body = s.doJSON(ctx, "GET", "/api/blogs/"+uuid.NewString(), "", nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
	assert.JSONEq(s.T(), `{"success":false,"message":"Blog not found"}`, string(body))
}

func (s *IntegrationTestSuite) TestPublishWithFeaturedImage() {
	ctx := context.Background()
	author := s.registerUser(ctx)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	require.NoError(s.T(), mw.WriteField("title", "With an image"))
	require.NoError(s.T(), mw.WriteField("category", "photos"))
	require.NoError(s.T(), mw.WriteField("content", "look at this"))
	fw, err := mw.CreateFormFile("featuredImage", "cover.png")
	require.NoError(s.T(), err)
	_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n" + strings.Repeat("0", 64)))
	require.NoError(s.T(), err)
	require.NoError(s.T(), mw.Close())

	status, body := s.doRequest(ctx, "POST", "/api/blogs/publish", author.token, mw.FormDataContentType(), &form)
	require.Equal(s.T(), http.StatusCreated, status, string(body))

	var publishResp blog.PublishResponse
	s.decode(body, &publishResp)
	imageURL := publishResp.Blog.FeaturedImage
	require.True(s.T(), strings.HasPrefix(imageURL, serverEndpoint+"/uploads/blogs/"), imageURL)

	status, _ = s.doRequest(ctx, "GET", strings.TrimPrefix(imageURL, serverEndpoint), "", "", nil)
	assert.Equal(s.T(), http.StatusOK, status)
}

func (s *IntegrationTestSuite) TestToggleLike() {
	ctx := context.Background()
	author := s.registerUser(ctx)
	liker := s.registerUser(ctx)
	post := s.publishPost(ctx, author, "likes")
	likePath := "/api/blogs/like/" + post.ID.String()

	toggle := func(u *testUser) blog.LikeResponse {
		status, body := s.doJSON(ctx, "PUT", likePath, u.token, nil)
		require.Equal(s.T(), http.StatusOK, status, string(body))
		var likeResp blog.LikeResponse
		s.decode(body, &likeResp)
		return likeResp
	}

	likeResp := toggle(liker)
	assert.True(s.T(), likeResp.Liked)
	assert.Equal(s.T(), 1, likeResp.LikesCount)
	assert.Equal(s.T(), []uuid.UUID{liker.profile.ID}, s.getPost(ctx, post.ID).Article.Likes)

	likeResp = toggle(liker)
	assert.False(s.T(), likeResp.Liked)
	assert.Equal(s.T(), 0, likeResp.LikesCount)
	assert.Empty(s.T(), s.getPost(ctx, post.ID).Article.Likes)

	status, body := s.doJSON(ctx, "PUT", "/api/blogs/like/"+uuid.NewString(), liker.token, nil)
	assert.Equal(s.T(), http.StatusNotFound, status)
	assert.JSONEq(s.T(), `{"success":false,"message":"Blog not found"}`, string(body))
}

func (s *IntegrationTestSuite) TestToggleLike_Concurrent() {
	ctx := context.Background()
	author := s.registerUser(ctx)
	post := s.publishPost(ctx, author, "likes")
	likePath := "/api/blogs/like/" + post.ID.String()

	const likers = 8
	likerUsers := make([]*testUser, likers)
	for i := range likerUsers {
		likerUsers[i] = s.registerUser(ctx)
	}

	// every liker toggles three times, ending up liked
	var wg sync.WaitGroup
	for _, u := range likerUsers {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				req, err := http.NewRequestWithContext(ctx, "PUT", serverEndpoint+likePath, nil)
				if err != nil {
					return
				}
				req.Header.Set("Authorization", "Bearer "+token)
				resp, err := s.httpClient.Do(req)
				if err != nil {
					return
				}
				_ = resp.Body.Close()
			}
		}(u.token)
	}
	wg.Wait()

	var total, distinct int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT user_id) FROM blog_like WHERE blog_id = $1`, post.ID,
	).Scan(&total, &distinct)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), likers, total)
	assert.Equal(s.T(), total, distinct)
	assert.Len(s.T(), s.getPost(ctx, post.ID).Article.Likes, likers)
}

func (s *IntegrationTestSuite) TestComments() {
	ctx := context.Background()
	author := s.registerUser(ctx)
	commenter := s.registerUser(ctx)
	post := s.publishPost(ctx, author, "comments")
	blogID := post.ID.String()

	status, body := s.doJSON(ctx, "POST", "/api/blogs/comment/"+blogID, commenter.token, blog.InlineCommentRequest{Comment: "first!"})
	require.Equal(s.T(), http.StatusOK, status, string(body))
	var commentResp blog.CommentResponse
	s.decode(body, &commentResp)
	assert.Equal(s.T(), 1, commentResp.CommentsCount)

	status, body = s.doJSON(ctx, "POST", "/api/comments", author.token, blog.AddCommentRequest{BlogID: blogID, Text: "thanks"})
	require.Equal(s.T(), http.StatusCreated, status, string(body))
	var added blog.Comment
	s.decode(body, &added)
	assert.Equal(s.T(), post.ID, added.BlogID)
	assert.Equal(s.T(), author.profile.ID, added.UserID)
	assert.Equal(s.T(), author.profile.Name, added.Name)

	status, body = s.doJSON(ctx, "POST", "/api/blogs/comment/"+blogID, commenter.token, blog.InlineCommentRequest{Comment: "   "})
	assert.Equal(s.T(), http.StatusBadRequest, status)
	assert.JSONEq(s.T(), `{"success":false,"message":"Comment cannot be empty"}`, string(body))

	status, body = s.doJSON(ctx, "POST", "/api/comments", author.token, blog.AddCommentRequest{BlogID: blogID})
	assert.Equal(s.T(), http.StatusBadRequest, status)
	assert.JSONEq(s.T(), `{"success":false,"message":"All fields required"}`, string(body))

	status, body = s.doJSON(ctx, "GET", "/api/comments/blog/"+blogID, commenter.token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	var comments []*blog.Comment
	s.decode(body, &comments)
	require.Len(s.T(), comments, 2)
	assert.Equal(s.T(), "thanks", comments[0].Text)
	assert.Equal(s.T(), "first!", comments[1].Text)

	// the post itself carries the comments too
	single := s.getPost(ctx, post.ID)
	assert.Len(s.T(), single.Article.Comments, 2)
	assert.Len(s.T(), single.Comments, 2)

	status, body = s.doJSON(ctx, "GET", "/api/comments", commenter.token, nil)
	assert.Equal(s.T(), http.StatusBadRequest, status)
	assert.JSONEq(s.T(), `{"success":false,"message":"Blog ID required"}`, string(body))
}

func (s *IntegrationTestSuite) TestDashboard() {
	ctx := context.Background()
	author := s.registerUser(ctx)
	fan := s.registerUser(ctx)
	post := s.publishPost(ctx, author, "dashboard")

	status, _ := s.doJSON(ctx, "PUT", "/api/blogs/like/"+post.ID.String(), fan.token, nil)
	require.Equal(s.T(), http.StatusOK, status)
	status, _ = s.doJSON(ctx, "POST", "/api/blogs/comment/"+post.ID.String(), fan.token, blog.InlineCommentRequest{Comment: "nice"})
	require.Equal(s.T(), http.StatusOK, status)

	status, body := s.doJSON(ctx, "GET", "/api/user/user-blogs", author.token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	var summariesResp blog.SummariesResponse
	s.decode(body, &summariesResp)
	require.Len(s.T(), summariesResp.Blogs, 1)
	assert.Equal(s.T(), post.ID, summariesResp.Blogs[0].ID)
	assert.Equal(s.T(), 1, summariesResp.Blogs[0].Likes)
	assert.Equal(s.T(), 1, summariesResp.Blogs[0].Comments)

	var usersCount, blogsCount int
	require.NoError(s.T(), s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&usersCount))
	require.NoError(s.T(), s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog`).Scan(&blogsCount))

	status, body = s.doJSON(ctx, "GET", "/api/user/dashboard", author.token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))
	var dashboardResp blog.DashboardResponse
	s.decode(body, &dashboardResp)
	assert.True(s.T(), dashboardResp.Success)
	assert.Equal(s.T(), usersCount, dashboardResp.TotalUsers)
	assert.Equal(s.T(), blogsCount, dashboardResp.TotalBlogs)
	require.NotEmpty(s.T(), dashboardResp.RecentBlogs)
	assert.LessOrEqual(s.T(), len(dashboardResp.RecentBlogs), 5)
	assert.Equal(s.T(), post.ID, dashboardResp.RecentBlogs[0].ID)
}
