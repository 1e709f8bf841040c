package subscription

import (
	"context"

	"github.com/mattjoyce/consolidate-bridge/internal/graphql"
)

//go:generate mockgen -destination=mocks/mock_doer.go -package=mocks github.com/mattjoyce/consolidate-bridge/internal/subscription GraphQLDoer

// GraphQLDoer runs GraphQL requests against the Consolidate API.
type GraphQLDoer interface {
	Do(ctx context.Context, req graphql.Request) (*graphql.Response, error)
}
