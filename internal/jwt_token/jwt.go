package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/requestcontext"
)

// Claims are the access-token claims issued by the identity provider in front
// of this service. Worker tokens carry the worker id; operator tokens do not.
type Claims struct {
	Role     string `json:"role"`
	WorkerID string `json:"worker_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService validates (and, for tooling and tests, issues) HS256 tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

func (s *JWTService) GenerateToken(subject string, role requestcontext.Role, workerID id.WorkerID, expiresIn time.Duration) (string, error) {
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if !workerID.IsNil() {
		claims.WorkerID = workerID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
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

// Principal converts validated claims into the request principal.
func (s *JWTService) Principal(tokenString string) (requestcontext.AuthPrincipal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return requestcontext.AuthPrincipal{}, err
	}
	p := requestcontext.AuthPrincipal{
		Subject: claims.Subject,
		Role:    requestcontext.Role(claims.Role),
	}
	switch p.Role {
	case requestcontext.RoleOperator:
	case requestcontext.RoleWorker:
		workerID, err := id.ParseWorkerID(claims.WorkerID)
		if err != nil {
			return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "worker token without worker id")
		}
		p.WorkerID = workerID
	default:
		return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "unknown role")
	}
	return p, nil
}
