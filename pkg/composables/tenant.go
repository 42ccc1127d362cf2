package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/trackforge/assetflow/pkg/constants"
)

var (
	ErrNoTenantID = errors.New("no tenant id found in context")
	ErrNoActorID  = errors.New("no actor id found in context")
)

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenantID
	}
	return tenantID, nil
}

// WithActorID records the authenticated caller's identity; the upstream
// gateway owns authentication, this layer only transports the result.
func WithActorID(ctx context.Context, actorID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.ActorIDKey, actorID)
}

func UseActorID(ctx context.Context) (uuid.UUID, error) {
	actorID, ok := ctx.Value(constants.ActorIDKey).(uuid.UUID)
	if !ok || actorID == uuid.Nil {
		return uuid.Nil, ErrNoActorID
	}
	return actorID, nil
}
