package directory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Authorizer decides whether a user may mutate a project. It is a policy
// interface so that alternate backends can replace the link lookup.
type Authorizer interface {
	Authorize(ctx context.Context, userID uuid.UUID, projectID uint64) (bool, error)
}

type linkChecker interface {
	HasProjectLink(ctx context.Context, userID uuid.UUID, projectID uint64) (bool, error)
}

// LinkAuthorizer grants mutation rights to any user holding a link to the
// project. No link, no edit rights.
type LinkAuthorizer struct {
	store linkChecker
}

func NewLinkAuthorizer(store linkChecker) *LinkAuthorizer {
	return &LinkAuthorizer{store: store}
}

func (a *LinkAuthorizer) Authorize(
	ctx context.Context,
	userID uuid.UUID,
	projectID uint64,
) (bool, error) {
	ok, err := a.store.HasProjectLink(ctx, userID, projectID)
	if err != nil {
		return false, fmt.Errorf("check project link: %w", err)
	}
	return ok, nil
}
