package identity

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/ledger"
)

// Resolver establishes the owner identity for a request credential.
type Resolver interface {
	ResolveToken(token string) (string, error)
}

// StaticResolver maps configured API tokens to owner ids. Farms are small
// single-operator deployments; a static token table from configuration is
// the whole identity story here.
type StaticResolver struct {
	tokens map[string]string
	logger *zap.Logger
}

// NewStaticResolver builds a resolver over a token -> owner id table.
func NewStaticResolver(tokens map[string]string, logger *zap.Logger) *StaticResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticResolver{tokens: tokens, logger: logger}
}

// ResolveToken returns the owner id for a bearer token, or
// ledger.ErrUnauthenticated when the token is missing or unknown.
func (r *StaticResolver) ResolveToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ledger.ErrUnauthenticated
	}
	owner, ok := r.tokens[token]
	if !ok {
		r.logger.Debug("unknown api token presented")
		return "", ledger.ErrUnauthenticated
	}
	return owner, nil
}
