package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	defaultCertCacheTTL  = time.Hour
	defaultLeeway        = 30 * time.Second
	defaultMinRefresh    = time.Minute
)

var errUnknownKey = errors.New("unknown token key")

// FirebaseConfig configures ID token verification.
type FirebaseConfig struct {
	ProjectID  string
	CertURL    string
	HTTPClient *http.Client
	// MinRefreshInterval spaces out refetches triggered by unknown key ids.
	MinRefreshInterval time.Duration
}

// FirebaseVerifier verifies Firebase ID tokens (RS256) against Google's
// published x509 certificates. Certificates are fetched on first use and
// cached for the max-age the endpoint advertises. A token naming an unknown
// key id triggers a refetch at most once per MinRefreshInterval.
type FirebaseVerifier struct {
	projectID  string
	issuer     string
	certURL    string
	httpClient *http.Client
	minRefresh time.Duration

	refreshMu sync.Mutex
	lastFetch time.Time

	mu         sync.RWMutex
	keys       map[string]any
	keysExpire time.Time
}

type firebaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewFirebaseVerifier creates a verifier for the given project.
func NewFirebaseVerifier(cfg FirebaseConfig) (*FirebaseVerifier, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, errors.New("firebase verifier requires a project id")
	}
	if strings.TrimSpace(cfg.CertURL) == "" {
		return nil, errors.New("firebase verifier requires a certificate url")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	minRefresh := cfg.MinRefreshInterval
	if minRefresh <= 0 {
		minRefresh = defaultMinRefresh
	}
	return &FirebaseVerifier{
		projectID:  projectID,
		issuer:     firebaseIssuerPrefix + projectID,
		certURL:    cfg.CertURL,
		httpClient: client,
		minRefresh: minRefresh,
	}, nil
}

// Verify validates token and returns the email it was issued for.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, reject(ErrMissingCredential, nil)
	}
	claims, err := v.parse(token)
	if err != nil && (errors.Is(err, errUnknownKey) || v.keysExpired()) {
		if refreshErr := v.refreshIfStale(ctx); refreshErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeysUnavailable, refreshErr)
		}
		claims, err = v.parse(token)
	}
	if err != nil {
		return nil, reject(ErrInvalidCredential, err)
	}
	if claims.Subject == "" {
		return nil, reject(ErrInvalidCredential, errors.New("token subject missing"))
	}
	if claims.Email == "" {
		return nil, reject(ErrInvalidCredential, errors.New("token has no email claim"))
	}
	return &Identity{Email: claims.Email, Subject: claims.Subject}, nil
}

func (v *FirebaseVerifier) parse(token string) (*firebaseClaims, error) {
	keys := v.copyKeys()
	claims := &firebaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[strings.TrimSpace(kid)]
		if !ok {
			return nil, errUnknownKey
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(defaultLeeway),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (v *FirebaseVerifier) keysExpired() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return time.Now().After(v.keysExpire)
}

func (v *FirebaseVerifier) copyKeys() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.keys))
	for kid, key := range v.keys {
		out[kid] = key
	}
	return out
}

// refreshIfStale refetches the certificates unless they are unexpired and
// were fetched within minRefresh. Concurrent callers share one fetch.
func (v *FirebaseVerifier) refreshIfStale(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()
	if !v.keysExpired() && time.Since(v.lastFetch) < v.minRefresh {
		return nil
	}
	v.lastFetch = time.Now()
	return v.refresh(ctx)
}

func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch certificates: status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("decode certificates: %w", err)
	}
	keys := make(map[string]any, len(certs))
	for kid, pemCert := range certs {
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemCert))
		if err != nil {
			continue
		}
		keys[kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("certificate set contains no usable rsa keys")
	}

	ttl := parseCacheMaxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = defaultCertCacheTTL
	}

	v.mu.Lock()
	v.keys = keys
	v.keysExpire = time.Now().Add(ttl)
	v.mu.Unlock()
	return nil
}

func parseCacheMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if !strings.HasPrefix(part, "max-age=") {
			continue
		}
		secs, err := time.ParseDuration(strings.TrimPrefix(part, "max-age=") + "s")
		if err != nil {
			return 0
		}
		return secs
	}
	return 0
}
