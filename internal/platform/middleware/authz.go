// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/huddle/internal/platform/apperr"
	"github.com/taibuivan/huddle/internal/platform/constants"
	"github.com/taibuivan/huddle/internal/platform/ctxutil"
	"github.com/taibuivan/huddle/internal/platform/respond"
	"github.com/taibuivan/huddle/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}

// RevocationChecker reports whether a credential id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(context context.Context, tokenID string) (bool, error)
}

// Authenticate extracts and verifies the credential carried by the request.
//
// # Flow
//  1. Read 'Authorization: Bearer <token>', falling back to the 'token' cookie.
//  2. If neither is present, the request proceeds as anonymous.
//  3. Verify the signature and expiry via [TokenVerifier].
//  4. Reject credentials whose id was revoked by logout.
//  5. Inject [*sec.AuthClaims] and the raw token into the request context.
//
// A bad header credential is rejected with 401. A bad cookie credential is
// dropped and the request continues as anonymous, so a stale browser cookie
// never blocks public routes or logout; protected routes still answer 401
// through [RequireAuth].
func Authenticate(verifier TokenVerifier, revocations RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Credential Extraction ──────────────────────────────────────
			rawToken, fromCookie, err := extractToken(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 2. Anonymous Access ───────────────────────────────────────────
			if rawToken == "" {
				next.ServeHTTP(writer, request)
				return
			}

			reject := func(message string) {
				if fromCookie {
					next.ServeHTTP(writer, request)
					return
				}
				respond.Error(writer, request, apperr.Unauthorized(message))
			}

			// ── 3. Verification and Revocation ────────────────────────────────
			claims, err := verifyCredential(request.Context(), verifier, revocations, rawToken)
			if err != nil {
				if apperr.HasCode(err, apperr.CodeUnauthorized) {
					reject(apperr.As(err).Message)
					return
				}
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			next.ServeHTTP(writer, request.WithContext(withClaims(request.Context(), claims, rawToken)))
		})
	}
}

/*
QueryToken authenticates from a URL query parameter when no other credential
was accepted earlier in the chain.

Browsers cannot set headers on websocket upgrades, so the realtime endpoint
receives its credential as ?token=. An invalid query credential is a 401.
*/
func QueryToken(verifier TokenVerifier, revocations RevocationChecker, param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			rawToken := request.URL.Query().Get(param)
			if ctxutil.GetAuthUser(request.Context()) != nil || rawToken == "" {
				next.ServeHTTP(writer, request)
				return
			}

			claims, err := verifyCredential(request.Context(), verifier, revocations, rawToken)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request.WithContext(withClaims(request.Context(), claims, rawToken)))
		})
	}
}

// verifyCredential checks signature, expiry and revocation.
//
// Returns:
//   - error: Unauthorized for bad or revoked credentials, Internal when the
//     revocation store fails
func verifyCredential(context context.Context, verifier TokenVerifier, revocations RevocationChecker, rawToken string) (*sec.AuthClaims, error) {
	claims, err := verifier.VerifyToken(rawToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	if revocations != nil {
		revoked, err := revocations.IsRevoked(context, claims.ID)
		if err != nil {
			ctxutil.GetLogger(context).WarnContext(context, "revocation_check_failed",
				slog.String("error", err.Error()),
			)
			return nil, apperr.Internal(err)
		}
		if revoked {
			return nil, apperr.Unauthorized("Token has been revoked")
		}
	}
	return claims, nil
}

func withClaims(context context.Context, claims *sec.AuthClaims, rawToken string) context.Context {
	ctx := ctxutil.WithAuthUser(context, claims, rawToken)
	return ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", claims.UserID)))
}

// extractToken prefers the Authorization header and falls back to the cookie.
func extractToken(request *http.Request) (token string, fromCookie bool, err error) {
	if header := request.Header.Get(constants.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], constants.BearerSchemePrefix) || parts[1] == "" {
			return "", false, apperr.Unauthorized("Invalid authorization format")
		}
		return parts[1], false, nil
	}

	cookie, cookieErr := request.Cookie(constants.TokenCookieName)
	if cookieErr != nil || cookie.Value == "" {
		return "", false, nil
	}
	return cookie.Value, true, nil
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
