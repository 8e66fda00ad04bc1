package ports

import (
	"context"

	"github.com/inquotus/marketplace-api/internal/core/domain"
)

// IdentityRepository defines persistence for marketplace identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	// ListApprovedByRoles returns approved identities holding any of the
	// given roles. Used to fan out new-listing notifications.
	ListApprovedByRoles(ctx context.Context, roles []string) ([]*domain.Identity, error)
}
