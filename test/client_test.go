//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/2beens/blogsvc/internal/auth"
	"github.com/2beens/blogsvc/internal/users"
)

type testUser struct {
	email    string
	password string
	token    string
	profile  *users.User
}

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context,
	method, path, token, contentType string,
	body io.Reader,
) (int, []byte) {
	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, body)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	return resp.StatusCode, respBody
}

func (s *IntegrationTestSuite) doJSON(
	ctx context.Context,
	method, path, token string,
	payload any,
) (int, []byte) {
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewReader(payloadBytes)
	}
	return s.doRequest(ctx, method, path, token, "application/json", body)
}

func (s *IntegrationTestSuite) decode(body []byte, v any) {
	require.NoError(s.T(), json.Unmarshal(body, v), string(body))
}

// registerUser signs up a fresh user and resolves its profile with the issued token.
func (s *IntegrationTestSuite) registerUser(ctx context.Context) *testUser {
	u := &testUser{
		email:    uuid.NewString()[:8] + "." + gofakeit.Email(),
		password: gofakeit.Password(true, true, true, false, false, 12),
	}

	status, body := s.doJSON(ctx, "POST", "/auth/register", "", auth.RegisterRequest{
		Username: gofakeit.Username(),
		Email:    u.email,
		Password: u.password,
	})
	require.Equal(s.T(), http.StatusCreated, status, string(body))

	var authResp auth.AuthResponse
	s.decode(body, &authResp)
	require.NotEmpty(s.T(), authResp.Token)
	u.token = authResp.Token

	status, body = s.doJSON(ctx, "GET", "/api/user/profile", u.token, nil)
	require.Equal(s.T(), http.StatusOK, status, string(body))

	var profileResp users.ProfileResponse
	s.decode(body, &profileResp)
	require.NotNil(s.T(), profileResp.User)
	u.profile = profileResp.User

	return u
}
