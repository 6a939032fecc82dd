package ctxutil

import (
	"context"

	"github.com/yungbote/agencyledger-backend/internal/authz"
)

type requestDataKey struct{}

// RequestData is attached by the auth middleware once a bearer token has been verified.
type RequestData struct {
	TokenString string
	Principal   authz.Principal
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}

// WithPrincipal is a shorthand used by CLIs and tests that act without a token.
func WithPrincipal(ctx context.Context, p authz.Principal) context.Context {
	return WithRequestData(ctx, &RequestData{Principal: p})
}

// PrincipalFrom returns the principal on ctx, if any.
func PrincipalFrom(ctx context.Context) (authz.Principal, bool) {
	rd := GetRequestData(ctx)
	if rd == nil || !rd.Principal.Valid() {
		return authz.Principal{}, false
	}
	return rd.Principal, true
}
