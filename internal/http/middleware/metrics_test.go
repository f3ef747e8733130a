package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tbourn/go-invitations-backend/internal/domain"
)

type metricsAuth struct{}

func (metricsAuth) Authenticate(_ context.Context, token string) (*domain.User, error) {
	return &domain.User{Username: strings.TrimPrefix(token, "svc."), Secret: strings.HasPrefix(token, "svc.")}, nil
}

func newMetricsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/statusonly", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/auth/:authToken/invitations", Authenticate(metricsAuth{}), func(c *gin.Context) {
		c.JSON(http.StatusOK, []string{})
	})
	return r
}

func serve(r http.Handler, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Code
}

func TestMetrics_RouteStatusAndInflight(t *testing.T) {
	r := newMetricsRouter()

	okCounter := httpReqs.WithLabelValues("GET", "/ok", "200", "anonymous")
	noContent := httpReqs.WithLabelValues("GET", "/statusonly", "204", "anonymous")
	baseOK, baseNC := testutil.ToFloat64(okCounter), testutil.ToFloat64(noContent)

	if code := serve(r, "/ok"); code != http.StatusOK {
		t.Fatalf("GET /ok -> %d", code)
	}
	if code := serve(r, "/statusonly"); code != http.StatusNoContent {
		t.Fatalf("GET /statusonly -> %d", code)
	}

	if got := testutil.ToFloat64(okCounter); got != baseOK+1 {
		t.Fatalf("/ok counter = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(noContent); got != baseNC+1 {
		t.Fatalf("/statusonly counter = %v; want %v", got, baseNC+1)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}

func TestMetrics_UnmatchedRouteKeepsTokenOut(t *testing.T) {
	r := newMetricsRouter()
	unmatched := httpReqs.WithLabelValues("GET", unmatchedRoute, "404", "anonymous")
	base := testutil.ToFloat64(unmatched)

	if code := serve(r, "/invitations/v1/auth/tok-123/bogus"); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	if got := testutil.ToFloat64(unmatched); got != base+1 {
		t.Fatalf("unmatched counter = %v; want %v", got, base+1)
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), "invitations_http_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if strings.Contains(lp.GetValue(), "tok-123") {
					t.Fatalf("%s carries the token in label %s=%q", mf.GetName(), lp.GetName(), lp.GetValue())
				}
			}
		}
	}
}

func TestMetrics_CallerKind(t *testing.T) {
	r := newMetricsRouter()
	route := "/auth/:authToken/invitations"
	user := httpReqs.WithLabelValues("GET", route, "200", "user")
	service := httpReqs.WithLabelValues("GET", route, "200", "service")
	baseUser, baseService := testutil.ToFloat64(user), testutil.ToFloat64(service)

	serve(r, "/auth/alice/invitations")
	serve(r, "/auth/svc.alice/invitations")
	serve(r, "/auth/svc.bob/invitations")

	if got := testutil.ToFloat64(user); got != baseUser+1 {
		t.Fatalf("user counter = %v; want %v", got, baseUser+1)
	}
	if got := testutil.ToFloat64(service); got != baseService+2 {
		t.Fatalf("service counter = %v; want %v", got, baseService+2)
	}
}
