package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/hirebridge/hirebridge/models"
	"github.com/hirebridge/hirebridge/store"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrRevoked           = errors.New("credential revoked")
	ErrUnknownPrincipal  = errors.New("unknown principal")
)

// Verifier resolves a bearer credential to a principal. The revocation list is
// consulted on the raw credential before any signature trust is extended; the
// subject is then looked up in the identity table matching the kind claim.
type Verifier struct {
	secret      []byte
	directory   store.IdentityDirectory
	revocations store.RevocationList
}

func NewVerifier(secret string, directory store.IdentityDirectory, revocations store.RevocationList) *Verifier {
	return &Verifier{secret: []byte(secret), directory: directory, revocations: revocations}
}

// Verify runs the full pipeline: revocation check, signature/expiry check,
// principal resolution. Used once per live connection at handshake.
func (v *Verifier) Verify(ctx context.Context, credential string) (*models.Principal, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidCredential)
	}

	revoked, err := v.revocations.IsRevoked(ctx, credential)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}

	claims, err := v.parse(credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	return v.resolve(ctx, claims)
}

// ResolveToken finishes verification for a token already validated by the REST
// JWT middleware: revocation on the raw credential plus principal resolution.
func (v *Verifier) ResolveToken(ctx context.Context, token *jwt.Token) (*models.Principal, error) {
	revoked, err := v.revocations.IsRevoked(ctx, token.Raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidCredential)
	}
	return v.resolve(ctx, claims)
}

func (v *Verifier) parse(credential string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func (v *Verifier) resolve(ctx context.Context, claims jwt.MapClaims) (*models.Principal, error) {
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidCredential)
	}

	kindClaim, _ := claims["kind"].(string)
	kind := models.Kind(kindClaim)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: bad kind claim", ErrInvalidCredential)
	}

	principal, err := v.directory.Resolve(ctx, models.PrincipalRef{ID: id, Kind: kind})
	if err != nil {
		if errors.Is(err, store.ErrUnknownPrincipal) {
			return nil, ErrUnknownPrincipal
		}
		return nil, err
	}
	return principal, nil
}

// SignCredential mints a bearer token for the given principal. The login
// subsystem owns issuance in production; tests and seed tooling use this.
func SignCredential(secret string, ref models.PrincipalRef, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  ref.ID.String(),
		"kind": string(ref.Kind),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
