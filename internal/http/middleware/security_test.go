package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRecorder(opt SecurityOptions, pre gin.HandlerFunc, prep func(*http.Request)) http.Header {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/invitations/v1/about", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/invitations/v1/about", nil)
	if prep != nil {
		prep(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders(t *testing.T) {
	withRID := func(expose string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Header(requestIDHeader, "rid-1")
			if expose != "" {
				c.Header("Access-Control-Expose-Headers", expose)
			}
			c.Next()
		}
	}
	overTLS := func(r *http.Request) { r.TLS = &tls.ConnectionState{} }

	tests := []struct {
		name string
		opt  SecurityOptions
		pre  gin.HandlerFunc
		prep func(*http.Request)
		want map[string]string
	}{
		{
			name: "baseline only",
			want: map[string]string{
				"X-Content-Type-Options":        "nosniff",
				"X-Frame-Options":               "DENY",
				"Referrer-Policy":               "no-referrer",
				"Permissions-Policy":            "",
				"Cache-Control":                 "",
				"Strict-Transport-Security":     "",
				"Access-Control-Expose-Headers": "",
			},
		},
		{
			name: "exposes request id",
			pre:  withRID(""),
			want: map[string]string{"Access-Control-Expose-Headers": "X-Request-ID"},
		},
		{
			name: "appends request id to exposed headers",
			pre:  withRID("ETag"),
			want: map[string]string{"Access-Control-Expose-Headers": "ETag, X-Request-ID"},
		},
		{
			name: "keeps an already exposed request id",
			pre:  withRID("X-Request-ID, ETag"),
			want: map[string]string{"Access-Control-Expose-Headers": "X-Request-ID, ETag"},
		},
		{
			name: "policy and no-store",
			opt:  SecurityOptions{EnablePolicy: true, NoStore: true},
			want: map[string]string{
				"X-Permitted-Cross-Domain-Policies": "none",
				"Cache-Control":                     "no-store",
				"Pragma":                            "no-cache",
				"Expires":                           "0",
			},
		},
		{
			name: "hsts over tls",
			opt:  SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour},
			prep: overTLS,
			want: map[string]string{"Strict-Transport-Security": "max-age=86400; includeSubDomains; preload"},
		},
		{
			name: "hsts default age behind a tls proxy",
			opt:  SecurityOptions{EnableHSTS: true},
			prep: func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "HTTPS") },
			want: map[string]string{"Strict-Transport-Security": "max-age=15552000; includeSubDomains; preload"},
		},
		{
			name: "no hsts over plain http",
			opt:  SecurityOptions{EnableHSTS: true},
			want: map[string]string{"Strict-Transport-Security": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := securityRecorder(tt.opt, tt.pre, tt.prep)
			for k, v := range tt.want {
				if got := h.Get(k); got != v {
					t.Errorf("%s = %q, want %q", k, got, v)
				}
			}
		})
	}
	if h := securityRecorder(SecurityOptions{EnablePolicy: true}, nil, nil); h.Get("Permissions-Policy") == "" {
		t.Fatalf("Permissions-Policy missing")
	}
}

func TestNoStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/about", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/auth/:authToken/invitations", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/about", nil))
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Fatalf("public route Cache-Control = %q", cc)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/tok/invitations", nil))
	if w.Header().Get("Cache-Control") != "no-store" || w.Header().Get("Pragma") != "no-cache" {
		t.Fatalf("authed route headers = %#v", w.Header())
	}
}
