// Package auth authenticates requests and enforces role-based access.
//
// Two modes are supported. In api_key mode each staff member class holds a
// static key configured at deploy time (doctor and staff). In jwt mode a
// bearer token signed with the shared HS256 key carries the roles claim.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	// RoleDoctor may read financial reports in addition to staff operations.
	RoleDoctor = "doctor"
	// RoleStaff may trigger billing runs and manage invoices.
	RoleStaff = "staff"

	// APIKeyHeader carries the static key in api_key mode.
	APIKeyHeader = "X-API-Key"

	rolesContextKey = "auth_roles"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims is the JWT payload accepted in jwt mode.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// RolesFromContext returns the roles the current request authenticated with.
func RolesFromContext(c echo.Context) []string {
	roles, _ := c.Get(rolesContextKey).([]string)
	return roles
}

func setRoles(c echo.Context, roles []string) {
	c.Set(rolesContextKey, roles)
}

// ---------------------------------------------------------------------------
// API key mode
// ---------------------------------------------------------------------------

// APIKeys maps the two static keys to their roles. Empty keys disable the
// corresponding role entirely.
type APIKeys struct {
	DoctorKey string
	StaffKey  string
}

// APIKeyMiddleware authenticates every request by the X-API-Key header.
// The doctor key also grants the staff role, mirroring how the practice
// operates: a doctor can do anything the front desk can.
func APIKeyMiddleware(keys APIKeys) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(APIKeyHeader)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing api key")
			}
			switch {
			case keys.DoctorKey != "" && subtle.ConstantTimeCompare([]byte(raw), []byte(keys.DoctorKey)) == 1:
				setRoles(c, []string{RoleDoctor, RoleStaff})
			case keys.StaffKey != "" && subtle.ConstantTimeCompare([]byte(raw), []byte(keys.StaffKey)) == 1:
				setRoles(c, []string{RoleStaff})
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}
			return next(c)
		}
	}
}

// ---------------------------------------------------------------------------
// JWT mode
// ---------------------------------------------------------------------------

// JWTMiddleware authenticates requests by an HS256-signed bearer token and
// places the token's roles claim in the request context.
func JWTMiddleware(signingKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := extractBearer(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return signingKey, nil
			})
			if err != nil || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			setRoles(c, claims.Roles)
			return next(c)
		}
	}
}

func extractBearer(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingCredentials
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidCredentials
	}
	return parts[1], nil
}

// ---------------------------------------------------------------------------
// Role enforcement
// ---------------------------------------------------------------------------

// RequireRole rejects the request with 403 unless the authenticated caller
// holds the given role. Must run after one of the authentication middlewares.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, r := range RolesFromContext(c) {
				if r == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "role "+role+" required")
		}
	}
}

// AllowAll grants every role without checking credentials. Development only.
func AllowAll() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			setRoles(c, []string{RoleDoctor, RoleStaff})
			return next(c)
		}
	}
}
