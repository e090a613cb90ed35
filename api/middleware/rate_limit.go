package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/article39/artist-platform-backend/api/responses"
	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
	"github.com/article39/artist-platform-backend/pkg/logger"
	"github.com/article39/artist-platform-backend/pkg/redis"
)

const (
	msgThrottled = "Request was throttled. Please try again later."
	// maxPeekBody bounds how much of a login body is buffered to find the username.
	maxPeekBody = 64 << 10
)

// RateLimitPolicy is a named fixed window with an optional per-IP and
// per-login budget. A zero limit disables that counter.
type RateLimitPolicy struct {
	name          string
	window        time.Duration
	ipLimit       int
	usernameLimit int
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit, usernameLimit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return RateLimitPolicy{name: name, window: window, ipLimit: ipLimit, usernameLimit: usernameLimit}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.usernameLimit > 0)
}

// counter is one budget checked for a request; key is empty when the request
// carries nothing to count against.
type counter struct {
	kind  string
	key   string
	limit int
}

// RateLimit rejects requests with 429 once any of the policy's counters is
// exhausted. Limiter failures surface as dependency errors.
func RateLimit(policy RateLimitPolicy, limiter redis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			counters := []counter{{kind: "ip", key: clientIP(r), limit: policy.ipLimit}}
			if policy.usernameLimit > 0 {
				login, err := peekLogin(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Unable to read request body."))
					return
				}
				if login != "" {
					counters = append(counters, counter{kind: "username", key: hashLogin(login), limit: policy.usernameLimit})
				}
			}

			for _, c := range counters {
				if c.limit <= 0 || c.key == "" {
					continue
				}
				scope := policy.name + ":" + c.kind + ":" + c.key
				allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(c.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					throttle(ctx, logg, w, policy, c, count)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func throttle(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, c counter, count int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":   policy.name,
			"scope":    c.kind,
			"key":      c.key,
			"attempts": count,
			"limit":    c.limit,
		}), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, msgThrottled))
}

// clientIP takes the first X-Forwarded-For hop, then X-Real-IP, then the peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// peekLogin reads the username (or email) from a JSON login body and puts the
// body back for the handler.
func peekLogin(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	var creds struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if json.Unmarshal(body, &creds) != nil {
		return "", nil
	}
	login := strings.TrimSpace(creds.Username)
	if login == "" {
		login = strings.TrimSpace(creds.Email)
	}
	return strings.ToLower(login), nil
}

func hashLogin(login string) string {
	sum := sha256.Sum256([]byte(login))
	return hex.EncodeToString(sum[:])
}
