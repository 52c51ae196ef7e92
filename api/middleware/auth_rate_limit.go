package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/askbox-backend/api/responses"
	"github.com/angelmondragon/askbox-backend/api/validators"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/angelmondragon/askbox-backend/pkg/logger"
	"github.com/angelmondragon/askbox-backend/pkg/metrics"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// AuthRateLimitPolicy defines the throttling parameters for a traffic surface.
// The identifier is whichever account name the request payload carries.
type AuthRateLimitPolicy struct {
	name            string
	window          time.Duration
	ipLimit         int
	identifierLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, identifierLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:            strings.ToLower(strings.TrimSpace(name)),
		window:          window,
		ipLimit:         ipLimit,
		identifierLimit: identifierLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.identifierLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

// scope is the store-independent part of a counter key, e.g. "login:ip:1.2.3.4".
func (p AuthRateLimitPolicy) scope(kind, value string) string {
	if value == "" {
		return ""
	}
	return p.normalizedName() + ":" + kind + ":" + value
}

// AuthRateLimit enforces per-IP and per-identifier counters for auth endpoints.
// Identifiers are hashed before they reach the store or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, m *metrics.AccountMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		limiter := &rateLimiter{policy: policy, store: store, metrics: m, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if err := limiter.check(ctx, "ip", clientIP(r), policy.ipLimit); err != nil {
				responses.WriteError(ctx, nil, w, err)
				return
			}

			if policy.identifierLimit > 0 {
				body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, validators.MaxBodyBytes))
				if err != nil {
					responses.WriteError(ctx, nil, w, readError(err))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				// Payloads without an identifier only count against the IP.
				if identifier := extractIdentifier(body); identifier != "" {
					if err := limiter.check(ctx, "id", hashValue(identifier), policy.identifierLimit); err != nil {
						responses.WriteError(ctx, nil, w, err)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

type rateLimiter struct {
	policy  AuthRateLimitPolicy
	store   rateLimiterStore
	metrics *metrics.AccountMetrics
	logg    *logger.Logger
}

// check counts one hit against kind/value. It returns a RATE_LIMIT error once
// the count passes limit, and a DEPENDENCY error when the store fails. An
// empty value or non-positive limit is not counted.
func (l *rateLimiter) check(ctx context.Context, kind, value string, limit int) error {
	scope := l.policy.scope(kind, value)
	if scope == "" || limit <= 0 {
		return nil
	}
	count, err := l.store.IncrWithTTL(ctx, l.store.RateLimitKey(scope), l.policy.window)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting")
	}
	if count <= int64(limit) {
		return nil
	}

	l.metrics.IncRateLimited(l.policy.normalizedName(), kindLabel(kind))
	if l.logg != nil {
		field := "ip"
		if kind == "id" {
			field = "identifier_hash"
		}
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"scope":          kindLabel(kind),
			"policy":         l.policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.window.Seconds()),
			field:            value,
		})
		l.logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	return pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded")
}

func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large")
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request")
}

func kindLabel(kind string) string {
	if kind == "id" {
		return "identifier"
	}
	return kind
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// extractIdentifier picks the account identifier from an auth payload. Email
// wins over username so a sign-up is counted once per address.
func extractIdentifier(payload []byte) string {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Login    string `json:"login"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	for _, candidate := range []string{body.Email, body.Login, body.Username} {
		if v := strings.ToLower(strings.TrimSpace(candidate)); v != "" {
			return v
		}
	}
	return ""
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
