package discovery

import (
	"context"

	"studyabroad-workers/internal/models"
)

// Source supplies the candidate universities of a discovery load.
type Source interface {
	Recommendations(ctx context.Context) ([]models.University, error)
}

// RecommendationClient is the remote recommendation service.
type RecommendationClient interface {
	Recommendations(ctx context.Context) ([]models.University, error)
}

// APISource asks the recommendation service on every call.
type APISource struct {
	client RecommendationClient
}

func NewAPISource(client RecommendationClient) *APISource {
	return &APISource{client: client}
}

func (s *APISource) Recommendations(ctx context.Context) ([]models.University, error) {
	return s.client.Recommendations(ctx)
}
