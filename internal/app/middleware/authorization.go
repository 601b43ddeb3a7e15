package middleware

import (
	"context"
	"errors"
	"fmt"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/queries"
)

var ErrForbidden = errors.New("middleware: actor role not permitted")

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted messages declare the acting role and the roles allowed to send them.
type RoleRestricted interface {
	ActorRole() string
	AllowedRoles() []string
}

// RoleAuthorizer rejects RoleRestricted messages whose actor role is not allowed.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, message any) error {
	r, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	role := r.ActorRole()
	for _, allowed := range r.AllowedRoles() {
		if allowed == role {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrForbidden, role)
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return nextFn(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return nextFn(ctx, q)
		})
	}
}
