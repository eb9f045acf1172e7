package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

func TestUserJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(UserJWTAuthMiddleware("", nil))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("status_code want 401 got %d", resp.StatusCode)
	}
}

func TestRequireSellerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	decode := func(t *testing.T, body []byte) int {
		t.Helper()
		var resp struct {
			StatusCode int `json:"status_code"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal response failed: %v", err)
		}
		return resp.StatusCode
	}

	newRouter := func(role string, withRole bool) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if withRole {
				c.Set(userRoleContextKey, role)
			}
			c.Next()
		}, RequireSellerMiddleware())
		r.GET("/seller/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status_code": 0})
		})
		return r
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/seller/ping", nil)
	newRouter("seller", true).ServeHTTP(w, req)
	if code := decode(t, w.Body.Bytes()); code != 0 {
		t.Fatalf("seller role should pass, got status_code %d", code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/seller/ping", nil)
	newRouter("customer", true).ServeHTTP(w, req)
	if code := decode(t, w.Body.Bytes()); code != 403 {
		t.Fatalf("customer role should be forbidden, got status_code %d", code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/seller/ping", nil)
	newRouter("", false).ServeHTTP(w, req)
	if code := decode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("missing role should be unauthorized, got status_code %d", code)
	}
}
