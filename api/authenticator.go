package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/vocdoni/stripe-subscriptions/api/apicommon"
	"github.com/vocdoni/stripe-subscriptions/errors"
	"go.vocdoni.io/dvote/log"
)

// authenticator is a middleware that checks the JWT token verified by
// jwtauth.Verifier. The token must carry a subject, which identifies the
// operator issuing the calls. The subject is added to the request context and
// the request is passed to the next handler.
func (*API) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil {
			errors.ErrUnauthorized.WithErr(err).Write(w)
			return
		}
		if token == nil || jwt.Validate(token, jwt.WithRequiredClaim(jwt.SubjectKey)) != nil {
			errors.ErrUnauthorized.Withf("subject claim not found in JWT token").Write(w)
			return
		}
		log.Debugw("authenticated request", "subject", token.Subject(), "path", r.URL.Path)
		ctx := context.WithValue(r.Context(), apicommon.SubjectMetadataKey, token.Subject())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Token creates a JWT token for the given subject, signed with the API
// secret. The token is valid for apicommon.TokenExpiration.
func (a *API) Token(subject string) (*apicommon.TokenResponse, error) {
	if a.auth == nil {
		return nil, errors.ErrUnauthorized.With("the API has no secret configured")
	}
	expiration := time.Now().Add(apicommon.TokenExpiration)
	j := jwt.New()
	if err := j.Set(jwt.SubjectKey, subject); err != nil {
		return nil, err
	}
	if err := j.Set(jwt.ExpirationKey, expiration); err != nil {
		return nil, err
	}
	claims, err := j.AsMap(context.Background())
	if err != nil {
		return nil, err
	}
	_, token, err := a.auth.Encode(claims)
	if err != nil {
		return nil, err
	}
	return &apicommon.TokenResponse{Token: token, Expirity: expiration}, nil
}
