// Package session derives display state from an access token on the client
// side. Tokens are decoded without signature verification, so the result is a
// presentation hint only and must never gate an authorization decision.
package session

import (
	"errors"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/technotes/internal/models"
	"github.com/Skotchmaster/technotes/internal/tokens"
)

var ErrMalformedToken = errors.New("malformed access token")

type Info struct {
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	IsManager bool     `json:"isManager"`
	IsAdmin   bool     `json:"isAdmin"`
	Status    string   `json:"status"`
}

func Anonymous() Info {
	return Info{Username: "", Roles: []string{}, Status: models.RoleEmployee}
}

// Derive returns the anonymous identity for an empty token. A token that
// cannot be decoded also yields the anonymous identity, together with
// ErrMalformedToken.
func Derive(token string) (Info, error) {
	if token == "" {
		return Anonymous(), nil
	}

	var claims tokens.AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Anonymous(), errors.Join(ErrMalformedToken, err)
	}

	roles := claims.UserInfo.Roles
	if roles == nil {
		roles = []string{}
	}
	info := Info{
		Username:  claims.UserInfo.Username,
		Roles:     roles,
		IsManager: slices.Contains(roles, models.RoleManager),
		IsAdmin:   slices.Contains(roles, models.RoleAdmin),
		Status:    models.RoleEmployee,
	}
	if info.IsManager {
		info.Status = models.RoleManager
	}
	if info.IsAdmin {
		info.Status = models.RoleAdmin
	}
	return info, nil
}
