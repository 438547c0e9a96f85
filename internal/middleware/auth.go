package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	jwt_internal "github.com/regfence-dev/regfence/internal/jwt"
)

// Auth holds dependencies for admin authentication middleware. There is a
// single operator account, so the only check beyond token validity is the
// admin claim.
type Auth struct {
	jwtService    jwt_internal.JwtService
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		secureCookies: secureCookies,
	}
}

// AdminOnly returns middleware that requires a valid admin token.
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := a.checkAdmin(r); err != nil {
				switch err {
				case errNoToken:
					http.Error(w, "Please sign-in", http.StatusUnauthorized)
				default:
					http.Error(w, "Invalid access token", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) checkAdmin(r *http.Request) error {
	// Cookie for browser clients, Authorization header for API clients
	var tokenString string
	accessCookie, err := r.Cookie("accessToken")
	if err == nil {
		tokenString = accessCookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}

	if tokenString == "" {
		return errNoToken
	}

	token, err := a.jwtService.DecodeToken(tokenString)
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errInvalidClaims
	}

	isAdmin, ok := claims["admin"].(bool)
	if !ok || !isAdmin {
		return errInvalidClaims
	}

	return nil
}

var (
	errNoToken       = errorString("no token")
	errInvalidClaims = errorString("invalid claims")
)

type errorString string

func (e errorString) Error() string { return string(e) }
