package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// maxQueryLogLength caps the logged raw query.
const maxQueryLogLength = 2048

var (
	// authSegmentRE matches the token segment of /auth/<token> paths.
	authSegmentRE = regexp.MustCompile(`/auth/[^/]+`)

	// Applied in order. UUIDs go first so the phone pattern never sees their
	// digit runs.
	scrubbers = []struct {
		re   *regexp.Regexp
		mask string
	}{
		{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
		{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
		{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
	}

	alwaysMasked = []string{"Authorization", "Cookie", "Set-Cookie"}
)

// RedactPath hides auth tokens in a raw URL path.
func RedactPath(p string) string {
	return authSegmentRE.ReplaceAllString(p, "/auth/[REDACTED]")
}

func scrub(s string) string {
	if s == "" {
		return s
	}
	for _, sc := range scrubbers {
		s = sc.re.ReplaceAllString(s, sc.mask)
	}
	return s
}

// RedactOptions adds header names (case-insensitive) whose values are
// replaced by [REDACTED] on top of Authorization, Cookie and Set-Cookie.
type RedactOptions struct {
	MaskHeaders []string
}

// RedactingLogger writes one access log line per request: info below 400,
// warn for 4xx, error for 5xx. Bodies are never logged. The query and header
// values are scrubbed of emails, phone numbers and UUIDs, and an unmatched
// path has its /auth/<token> segment hidden.
//
// It also attaches a logger carrying request_id, method and path to the Gin
// context (LoggerFrom) and to the request context (zerolog.Ctx), which is
// how the gate and the invitation engine log with the same fields.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := make(map[string]bool, len(alwaysMasked)+len(opts.MaskHeaders))
	for _, h := range append(append([]string{}, alwaysMasked...), opts.MaskHeaders...) {
		if h = strings.TrimSpace(h); h != "" {
			masked[http.CanonicalHeaderKey(h)] = true
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = RedactPath(c.Request.URL.Path)
		}
		query := scrub(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := scrubHeaders(c.Request.Header, masked)

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		if status >= http.StatusInternalServerError {
			ev = l.Error()
		} else if status >= http.StatusBadRequest {
			ev = l.Warn()
		}
		if uid := c.GetString(userIDKey); uid != "" {
			ev = ev.Str("user_id", uid)
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

func scrubHeaders(h http.Header, masked map[string]bool) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if masked[http.CanonicalHeaderKey(k)] {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = scrub(strings.Join(vv, ", "))
	}
	return out
}

// truncate cuts s to max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
