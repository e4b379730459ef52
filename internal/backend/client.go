// Package backend calls the remote profile, recommendation and lock
// services on behalf of one signed-in user.
package backend

import (
	"context"
	"net/url"

	httpclient "studyabroad-workers/internal/common/http"
	"studyabroad-workers/internal/models"
)

const (
	pathProfile         = "/profile/"
	pathProfileUpdate   = "/profile/update"
	pathRecommendations = "/universities/recommend"
	pathLock            = "/universities/lock/"
)

type Client struct {
	http *httpclient.Client
}

func New(c *httpclient.Client) *Client {
	return &Client{http: c}
}

// ForUser returns a client authenticating with tokens. A 401 from a
// non-auth endpoint calls onUnauthorized.
func (c *Client) ForUser(tokens httpclient.TokenSource, onUnauthorized httpclient.UnauthorizedHook) *Client {
	return &Client{http: c.http.WithTokens(tokens, onUnauthorized)}
}

func (c *Client) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := c.http.Get(ctx, pathProfile, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile sends only the fields present in patch and returns the
// profile as stored remotely.
func (c *Client) UpdateProfile(ctx context.Context, patch models.ProfileUpdate) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := c.http.Post(ctx, pathProfileUpdate, patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Recommendations returns the user's recommended universities in the order
// the service ranks them.
func (c *Client) Recommendations(ctx context.Context) ([]models.University, error) {
	var unis []models.University
	if err := c.http.Get(ctx, pathRecommendations, &unis); err != nil {
		return nil, err
	}
	return unis, nil
}

func (c *Client) Lock(ctx context.Context, universityID string) (*models.LockResult, error) {
	var res models.LockResult
	if err := c.http.Post(ctx, pathLock+url.PathEscape(universityID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
