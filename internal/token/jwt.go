// Package token validates bearer credentials presented by the mobile client.
// Credentials are issued by an external identity service sharing the HS256
// signing key; this service only verifies and extracts the subject.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "smartdoor/pkg/domain"
	dErrors "smartdoor/pkg/domain-errors"
)

// Claims are the JWT claims this service expects on access tokens.
type Claims struct {
	SubjectID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service handles JWT validation (and creation, for tests and the dev issuer).
// It is stateless and safe for concurrent use.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Generate mints a signed access token for the given subject. Credential
// issuance is the identity service's job in production; this exists for tests
// and local development seeding.
func (s *Service) Generate(subjectID id.SubjectID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID: subjectID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// Validate verifies the signature, expiry, issuer, and audience of a
// credential and returns its claims. Failures carry the stable codes the
// error taxonomy demands:
// TOKEN_MISSING for an absent credential, TOKEN_EXPIRED when the expiry has
// passed, TOKEN_INVALID for everything else.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeTokenMissing, "access token required")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeTokenExpired, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeTokenInvalid, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeTokenInvalid, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeTokenInvalid, "invalid token claims")
	}
	return claims, nil
}

// SubjectFromToken validates a credential and returns the subject it asserts.
func (s *Service) SubjectFromToken(tokenString string) (id.SubjectID, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return id.SubjectID{}, err
	}
	subjectID, err := id.ParseSubjectID(claims.SubjectID)
	if err != nil {
		return id.SubjectID{}, dErrors.New(dErrors.CodeTokenInvalid, "token subject is not a valid id")
	}
	return subjectID, nil
}
