package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of a bearer token.
type Claims struct {
	Email      string            `json:"email"`
	Org        string            `json:"org"`
	Role       Role              `json:"role"`
	Attributes map[string]string `json:"attrs,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider issues and verifies HS256 bearer tokens and keeps a revocation list for
// signed-out tokens until they expire.
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> token expiry
}

// NewJWTProvider returns a provider signing with secret.
func NewJWTProvider(secret []byte, issuer string, ttl time.Duration) (*JWTProvider, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &JWTProvider{
		secret:  secret,
		issuer:  issuer,
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

// Issue signs a token for p valid for the provider's ttl.
func (p *JWTProvider) Issue(pr Principal) (string, error) {
	if pr.ID == "" {
		return "", errors.New("principal id must not be empty")
	}
	if pr.Role == "" {
		pr.Role = RoleMember
	}
	now := p.now()
	claims := &Claims{
		Email:      pr.Email,
		Org:        pr.OrganizationID,
		Role:       pr.Role,
		Attributes: pr.Attributes,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   pr.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(p.secret)
}

// Verify parses token and returns its principal. Malformed, expired, wrongly signed and
// revoked tokens all yield ErrInvalidToken.
func (p *JWTProvider) Verify(token string) (*Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if p.isRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: token has been signed out", ErrInvalidToken)
	}

	pr := &Principal{
		ID:             claims.Subject,
		Email:          claims.Email,
		OrganizationID: claims.Org,
		Role:           claims.Role,
		Attributes:     claims.Attributes,
		TokenID:        claims.ID,
	}
	if claims.ExpiresAt != nil {
		pr.ExpiresAt = claims.ExpiresAt.Time
	}
	return pr, nil
}

// CurrentUser returns the principal placed on ctx by the authentication middleware.
func (p *JWTProvider) CurrentUser(ctx context.Context) (*Principal, error) {
	pr, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNotAuthenticated
	}
	if p.isRevoked(pr.TokenID) {
		return nil, ErrNotAuthenticated
	}
	return pr, nil
}

// SignOut revokes the token of the current principal.
func (p *JWTProvider) SignOut(ctx context.Context) error {
	pr, err := p.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if pr.TokenID == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked()
	p.revoked[pr.TokenID] = pr.ExpiresAt
	return nil
}

func (p *JWTProvider) isRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[jti]
	return ok
}

func (p *JWTProvider) pruneLocked() {
	now := p.now()
	for jti, exp := range p.revoked {
		if !exp.IsZero() && now.After(exp) {
			delete(p.revoked, jti)
		}
	}
}
