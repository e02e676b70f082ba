package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type UserInfo struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type AccessClaims struct {
	UserInfo UserInfo `json:"UserInfo"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the username; roles are re-read from the store on
// every refresh. ID is a unique jti used for revocation.
type RefreshClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Issued struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// Service signs and verifies access and refresh tokens. The secrets are set
// once at startup and never change afterwards.
type Service struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewService(accessSecret, refreshSecret []byte) *Service {
	return &Service{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     AccessTTL,
		RefreshTTL:    RefreshTTL,
	}
}

func (s *Service) IssueAccessToken(username string, roles []string) (Issued, error) {
	now := time.Now()
	exp := now.Add(s.AccessTTL)
	if roles == nil {
		roles = []string{}
	}
	claims := AccessClaims{
		UserInfo: UserInfo{Username: username, Roles: roles},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.AccessSecret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign access token: %w", err)
	}
	return Issued{Token: token, ExpiresAt: exp}, nil
}

func (s *Service) IssueRefreshToken(username string) (Issued, error) {
	now := time.Now()
	exp := now.Add(s.RefreshTTL)
	jti := uuid.NewString()
	claims := RefreshClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
	if err != nil {
		return Issued{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return Issued{Token: token, ID: jti, ExpiresAt: exp}, nil
}

func (s *Service) VerifyAccessToken(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(raw, &claims, s.AccessSecret); err != nil {
		return nil, err
	}
	if claims.UserInfo.Username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrInvalidToken)
	}
	return &claims, nil
}

// VerifyRefreshToken checks signature and expiry. Every failure wraps
// ErrInvalidToken.
func (s *Service) VerifyRefreshToken(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(raw, &claims, s.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.Username == "" {
		return nil, fmt.Errorf("%w: missing username", ErrInvalidToken)
	}
	return &claims, nil
}

func parse(raw string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}
