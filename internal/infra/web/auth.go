package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gymdesk/internal/config"
	"gymdesk/internal/domain"
	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/infra/logging"
)

// ===== Session/JWT primitives =====

type AuthConfig struct {
	HMACSecret   []byte
	CookieName   string
	CookieDomain string
	SecureCookie bool
	TTL          time.Duration
}

type AuthManager struct{ cfg AuthConfig }

func NewAuthManager(cfg config.AuthConfig) *AuthManager {
	name := cfg.CookieName
	if name == "" {
		name = "gym_session"
	}
	return &AuthManager{cfg: AuthConfig{
		HMACSecret:   []byte(cfg.JWTSecret),
		CookieName:   name,
		CookieDomain: cfg.CookieDomain, // "" is fine if you want host-only cookie
		SecureCookie: cfg.SecureCookie,
		TTL:          cfg.TTL,
	}}
}

// OwnerClaims identify the gym owner; the subject is the owner id.
type OwnerClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

// Mint signs a token for ownerID. When w is not nil the token is also set
// as the session cookie.
func (a *AuthManager) Mint(w http.ResponseWriter, ownerID, email string) (string, error) {
	now := time.Now()
	claims := OwnerClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.TTL)),
			Subject:   ownerID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.cfg.HMACSecret)
	if err != nil {
		return "", err
	}
	if w == nil {
		return signed, nil
	}

	c := &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(a.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	http.SetCookie(w, c)
	return signed, nil
}

func (a *AuthManager) Clear(w http.ResponseWriter) {
	c := &http.Cookie{
		Name:     a.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	http.SetCookie(w, c)
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*OwnerClaims, error) {
	// Authorization: Bearer <jwt>
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			return a.parse(strings.TrimSpace(hdr[7:]))
		}
	}
	// Cookie
	if c, err := r.Cookie(a.cfg.CookieName); err == nil {
		return a.parse(c.Value)
	}
	return nil, errMissingToken
}

func (a *AuthManager) parse(tok string) (*OwnerClaims, error) {
	claims := &OwnerClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.cfg.HMACSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// ===== Request identity =====

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *adapter.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// Authenticate attaches the principal of a valid token to the request.
// Requests without one pass through anonymously; use cases refuse them.
func (a *AuthManager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.ParseFromRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := WithPrincipal(r.Context(), &adapter.Principal{ID: claims.Subject, Email: claims.Email})
		ctx = logging.WithOwnerID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var _ adapter.Identity = ContextIdentity{}

// ContextIdentity reads the principal placed on the context by
// Authenticate.
type ContextIdentity struct{}

func (ContextIdentity) CurrentPrincipal(ctx context.Context) (*adapter.Principal, error) {
	p, ok := ctx.Value(principalKey{}).(*adapter.Principal)
	if !ok || p == nil {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}
