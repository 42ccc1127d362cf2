package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	TenantIDKey  ContextKey = "tenantID"
	ActorIDKey   ContextKey = "actorID"
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "requestStart"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
