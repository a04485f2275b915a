package applications

import (
	"context"
	"fmt"

	"incubator-portal/internal/common/auth"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"
)

// Operation names an entry point of the operation surface.
type Operation string

const (
	OpSubmit    Operation = "submit"
	OpListAll   Operation = "listAll"
	OpGetByID   Operation = "getById"
	OpSetStatus Operation = "setStatus"
	OpSearch    Operation = "search"
	OpLogout    Operation = "logout"
)

// Requirement is the access rule for one operation. Roles empty with Public false
// means any authenticated actor.
type Requirement struct {
	Public bool
	Roles  []models.Role
}

// DefaultPolicy is consulted by every operation entry point.
var DefaultPolicy = map[Operation]Requirement{
	OpSubmit:    {Public: true},
	OpListAll:   {Roles: []models.Role{models.RoleAdmin}},
	OpGetByID:   {Roles: []models.Role{models.RoleAdmin}},
	OpSetStatus: {Roles: []models.Role{models.RoleAdmin}},
	OpSearch:    {Roles: []models.Role{models.RoleAdmin}},
	OpLogout:    {},
}

// RevocationChecker reports tokens invalidated by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Gate authenticates bearer tokens and applies the policy table.
type Gate struct {
	verifier    auth.Verifier
	revocations RevocationChecker
	policy      map[Operation]Requirement
}

func NewGate(verifier auth.Verifier, revocations RevocationChecker, policy map[Operation]Requirement) *Gate {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &Gate{verifier: verifier, revocations: revocations, policy: policy}
}

// Authenticate resolves token into an Actor.
func (g *Gate) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	actor, _, err := g.authenticate(ctx, token)
	return actor, err
}

func (g *Gate) authenticate(ctx context.Context, token string) (models.Actor, models.TokenClaims, error) {
	if token == "" {
		return models.Actor{}, models.TokenClaims{}, apperrors.NewUnauthenticatedError("missing bearer token")
	}

	claims, err := g.verifier.Verify(ctx, token)
	if err != nil {
		switch stdErr := apperrors.AsStandardError(err); stdErr.Code {
		case apperrors.ErrCodeUnauthenticated, apperrors.ErrCodeStoreUnavailable:
			return models.Actor{}, models.TokenClaims{}, stdErr
		}
		return models.Actor{}, models.TokenClaims{}, apperrors.NewUnauthenticatedError(err.Error())
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Actor{}, models.TokenClaims{}, apperrors.NewUnauthenticatedError(fmt.Sprintf("token role: %v", err))
	}

	if g.revocations != nil {
		revoked, err := g.revocations.IsRevoked(ctx, token)
		if err != nil {
			return models.Actor{}, models.TokenClaims{}, err
		}
		if revoked {
			return models.Actor{}, models.TokenClaims{}, apperrors.NewUnauthenticatedError("token has been revoked")
		}
	}

	return models.Actor{Identity: claims.Identity, Role: role}, claims, nil
}

// Authorize checks actor against the requirement for op. Operations missing from
// the policy are denied.
func (g *Gate) Authorize(actor models.Actor, op Operation) error {
	req, ok := g.policy[op]
	if !ok {
		return apperrors.NewForbiddenError(string(op), string(actor.Role))
	}
	if req.Public || len(req.Roles) == 0 {
		return nil
	}
	for _, r := range req.Roles {
		if actor.Role == r {
			return nil
		}
	}
	return apperrors.NewForbiddenError(string(op), string(actor.Role))
}

// Admit authenticates then authorizes. Public operations skip authentication and
// yield a zero Actor.
func (g *Gate) Admit(ctx context.Context, token string, op Operation) (models.Actor, error) {
	actor, _, err := g.admit(ctx, token, op)
	return actor, err
}

func (g *Gate) admit(ctx context.Context, token string, op Operation) (models.Actor, models.TokenClaims, error) {
	if req, ok := g.policy[op]; ok && req.Public {
		return models.Actor{}, models.TokenClaims{}, nil
	}

	actor, claims, err := g.authenticate(ctx, token)
	if err != nil {
		return models.Actor{}, models.TokenClaims{}, err
	}
	if err := g.Authorize(actor, op); err != nil {
		return models.Actor{}, models.TokenClaims{}, err
	}
	return actor, claims, nil
}
