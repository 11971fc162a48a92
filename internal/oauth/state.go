package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StateTTL bounds how long a user may sit on the consent screen.
const StateTTL = 10 * time.Minute

const stateIssuer = "mconnect-oauth"

// ErrStateMismatch is returned when a callback state does not belong to the
// browser session that started the flow.
var ErrStateMismatch = errors.New("oauth: state mismatch")

type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// StateSigner issues and checks the signed state parameter. The nonce is also
// kept in the caller's cookie session so a state cannot be replayed from a
// different browser.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStateSigner creates a signer keyed by secret.
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret), ttl: StateTTL, now: time.Now}
}

// Issue returns a fresh nonce and the signed state embedding it.
func (s *StateSigner) Issue() (nonce, state string, err error) {
	nonce = uuid.NewString()
	now := s.now()
	claims := stateClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    stateIssuer,
		},
	}
	state, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("oauth: sign state: %w", err)
	}
	return nonce, state, nil
}

// Verify checks the signature, expiry and nonce of state.
func (s *StateSigner) Verify(state, nonce string) error {
	token, err := jwt.ParseWithClaims(state, &stateClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(stateIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return fmt.Errorf("oauth: invalid state: %w", err)
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid {
		return errors.New("oauth: invalid state claims")
	}
	if nonce == "" || claims.Nonce != nonce {
		return ErrStateMismatch
	}
	return nil
}
