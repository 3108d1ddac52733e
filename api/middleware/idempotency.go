package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/contactevin2u/orderops-api/api/responses"
	"github.com/contactevin2u/orderops-api/internal/idempotency"
	pkgerrors "github.com/contactevin2u/orderops-api/pkg/errors"
	"github.com/contactevin2u/orderops-api/pkg/logger"
)

type routeMatcher func(string) bool

type idempotencyRule struct {
	method  string
	matcher routeMatcher
}

// Money-moving routes require an Idempotency-Key so clients can retry
// safely. Matching uses the concrete request path; chi only knows the
// parent route pattern this early in the middleware chain, and the claim
// scope must differ between orders anyway.
var idempotencyRules = []idempotencyRule{
	{method: http.MethodPost, matcher: matchExact("/v1/orders")},
	{method: http.MethodPost, matcher: matchSuffix("/payments")},
	{method: http.MethodPost, matcher: matchSuffix("/void")},
	{method: http.MethodPost, matcher: matchSuffix("/events")},
	{method: http.MethodPost, matcher: matchSuffix("/accrue")},
	{method: http.MethodPost, matcher: matchSuffix("/adjustments")},
}

// Idempotency gates mutating routes through the DB-backed gatekeeper: the
// first claim executes the handler and stores its outcome; every duplicate
// either replays the stored response or reports the original in flight.
func Idempotency(svc idempotency.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if svc == nil || !ruleMatches(r.Method, requestPath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if key == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			claim, err := svc.Claim(r.Context(), key, r.Method, requestPath(r))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if claim.Replay {
				responses.WriteReplay(w, claim.StatusCode, claim.ResponseBody)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			if err := svc.Finalize(r.Context(), key, r.Method, requestPath(r), status, rec.body.String()); err != nil {
				logg.Error(r.Context(), "finalize idempotency key", err)
			}
		})
	}
}

func ruleMatches(method, pattern string) bool {
	if pattern == "" {
		return false
	}
	for _, rule := range idempotencyRules {
		if rule.method == method && rule.matcher(pattern) {
			return true
		}
	}
	return false
}

func requestPath(r *http.Request) string {
	if r == nil || r.URL == nil {
		return ""
	}
	return strings.TrimSuffix(r.URL.Path, "/")
}

func matchExact(path string) routeMatcher {
	return func(pattern string) bool {
		return pattern == path
	}
}

func matchSuffix(suffix string) routeMatcher {
	return func(pattern string) bool {
		return strings.HasSuffix(pattern, suffix)
	}
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
