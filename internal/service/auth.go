package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hearthml/hearth/internal/model"
	"github.com/hearthml/hearth/internal/store"
)

var (
	// ErrInvalidKey is returned for any API key that fails validation.
	// The reason (unknown prefix, hash mismatch, deactivated, deleted) is
	// deliberately not distinguished.
	ErrInvalidKey = errors.New("invalid api key")

	// ErrInvalidToken is returned for any bearer token that fails
	// verification or whose key is no longer usable. Malformed, forged,
	// and expired tokens all map here.
	ErrInvalidToken = errors.New("invalid token")
)

const (
	// keyByteLength is the entropy of a generated key: 32 bytes encoded
	// as 64 lowercase hex characters.
	keyByteLength = 32

	// PrefixLength is the number of leading plaintext characters stored
	// in cleartext to narrow candidate lookup. Never sufficient alone for
	// authentication.
	PrefixLength = 8

	// DefaultTokenTTL is the session token lifetime when none is configured.
	DefaultTokenTTL = 30 * time.Minute
)

// AuthConfig holds the tunables for the auth service.
type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration // defaults to DefaultTokenTTL
	BcryptCost int           // defaults to bcrypt.DefaultCost; tests use bcrypt.MinCost
}

// AuthService owns the credential lifecycle: key issuance, key validation,
// and session token minting/verification.
type AuthService struct {
	store      *store.Store
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

// NewAuthService creates an AuthService backed by the given store.
func NewAuthService(st *store.Store, cfg AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      st,
		jwtSecret:  []byte(cfg.JWTSecret),
		tokenTTL:   ttl,
		bcryptCost: cost,
	}
}

// TokenTTL returns the configured session token lifetime.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// generateKey returns a fresh secret: 32 random bytes as 64 lowercase hex
// characters.
func generateKey() (string, error) {
	raw := make([]byte, keyByteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// IssueKey generates a new API key, stores its bcrypt hash and cleartext
// prefix, and returns the plaintext exactly once. The plaintext is
// unrecoverable afterward. A hash collision on insert indicates a generation
// bug and is returned as a non-retryable error.
func (s *AuthService) IssueKey(ctx context.Context, name, description string) (*model.APIKey, string, error) {
	plaintext, err := generateKey()
	if err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash api key: %w", err)
	}

	key := &model.APIKey{
		Name:        name,
		Description: description,
		KeyHash:     string(hash),
		KeyPrefix:   plaintext[:PrefixLength],
		IsActive:    true,
	}

	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		if errors.Is(err, store.ErrDuplicateHash) {
			return nil, "", fmt.Errorf("api key hash collision: %w", err)
		}
		return nil, "", fmt.Errorf("store api key: %w", err)
	}
	return key, plaintext, nil
}

// ValidateKey maps a presented plaintext key to its stored record. The
// 8-char prefix narrows the candidate set so only a handful of bcrypt
// comparisons run per call; every candidate is compared in full, so a
// prefix collision can never cause a false accept.
func (s *AuthService) ValidateKey(ctx context.Context, plaintext string) (*model.APIKey, error) {
	if len(plaintext) < PrefixLength {
		return nil, ErrInvalidKey
	}

	candidates, err := s.store.FindUsableKeysByPrefix(ctx, plaintext[:PrefixLength])
	if err != nil {
		return nil, fmt.Errorf("lookup key candidates: %w", err)
	}

	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].KeyHash), []byte(plaintext)) == nil {
			key := candidates[i]
			// Update last used timestamp (fire and forget)
			go s.store.TouchAPIKeyLastUsed(context.Background(), key.ID) //nolint:errcheck
			return &key, nil
		}
	}
	return nil, ErrInvalidKey
}

// tokenClaims is the fixed session token claim set. The subject carries the
// key ID; expiry is enforced by the JWT library on parse.
type tokenClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// IssueToken mints a signed HS256 session token for a validated key and
// returns it with the lifetime in seconds. No database access; pure with
// respect to the configured secret and the wall clock.
func (s *AuthService) IssueToken(key *model.APIKey) (string, int, error) {
	now := time.Now()
	claims := tokenClaims{
		Name: key.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(key.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    "hearth",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, int(s.tokenTTL.Seconds()), nil
}

// VerifyToken checks signature integrity and expiry and returns the embedded
// key ID and name. Any structural malformation, bad signature, or past
// expiry yields ErrInvalidToken; there is no partial trust.
func (s *AuthService) VerifyToken(tokenStr string) (int64, string, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	keyID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}
	return keyID, claims.Name, nil
}

// Principal is the minimal resolved identity attached to authenticated
// requests.
type Principal struct {
	ID   int64
	Name string
}

// Authenticate verifies a bearer token and re-checks live key state. A token
// remains cryptographically valid after its key is deactivated or deleted,
// so liveness is re-checked against the store on every request. All failure
// modes collapse to ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*Principal, error) {
	keyID, _, err := s.VerifyToken(tokenStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	key, err := s.store.GetAPIKey(ctx, keyID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !key.Usable() {
		return nil, ErrInvalidToken
	}

	return &Principal{ID: key.ID, Name: key.Name}, nil
}
