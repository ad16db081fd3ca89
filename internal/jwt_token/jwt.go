package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// Claims represents the JWT claims for caller access tokens.
type Claims struct {
	UserID        string `json:"user_id"`
	InstitutionID string `json:"institution_id,omitempty"`
	Role          string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// GenerateAccessToken issues an HS256 token for the identity. Used by the
// token CLI command and tests; production tokens come from the identity provider.
func (s *JWTService) GenerateAccessToken(caller id.Identity, expiresIn time.Duration) (string, error) {
	claims := Claims{
		UserID: caller.UserID.String(),
		Role:   string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			Subject:   caller.UserID.String(),
			ID:        uuid.NewString(),
		},
	}
	if !caller.InstitutionID.IsNil() {
		claims.InstitutionID = caller.InstitutionID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Identity converts validated claims into the caller identity.
func (c *Claims) Identity() (id.Identity, error) {
	userID, err := id.ParseUserID(c.UserID)
	if err != nil {
		return id.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid user claim")
	}
	role, err := id.ParseRole(c.Role)
	if err != nil {
		return id.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid role claim")
	}
	caller := id.Identity{UserID: userID, Role: role}
	if c.InstitutionID != "" {
		inst, err := id.ParseInstitutionID(c.InstitutionID)
		if err != nil {
			return id.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid institution claim")
		}
		caller.InstitutionID = inst
	}
	return caller, nil
}
