package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jesaworld/sms-backend/internal/config"
)

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Add("X-Multi", "a")
	hdr.Add("X-Multi", "b")
	body := []byte(`[{"id":1}]`)

	bs, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(bs)
	if !ok {
		t.Fatal("decodePayload rejected its own encoding")
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if gotHdr.Get("Content-Type") != "application/json" {
		t.Fatalf("content type lost: %v", gotHdr)
	}
	if vals := gotHdr["X-Multi"]; len(vals) != 2 || vals[0] != "a" || vals[1] != "b" {
		t.Fatalf("multi-value header lost: %v", vals)
	}
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body = %q, want %q", gotBody, body)
	}
}

func TestDecodePayloadTruncated(t *testing.T) {
	for _, bs := range [][]byte{nil, {1, 2, 3}, {0, 0, 0, 200, 0, 0, 0, 99}} {
		if _, _, _, ok := decodePayload(bs); ok {
			t.Fatalf("decodePayload accepted malformed input %v", bs)
		}
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	e := echo.New()
	mk := func(path, query string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, path+"?"+query, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath(path)
		return c
	}
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	a := cacheKeyFrom(cfg, mk("/api/admin/users/STUDENT", "page=1"))
	b := cacheKeyFrom(cfg, mk("/api/admin/users/STUDENT", "page=2"))
	if a == b {
		t.Fatal("route_query keys ignore the querystring")
	}

	cfg.KeyStrategy = "route"
	a = cacheKeyFrom(cfg, mk("/api/admin/users/STUDENT", "page=1"))
	b = cacheKeyFrom(cfg, mk("/api/admin/users/STUDENT", "page=2"))
	if a != b {
		t.Fatal("route keys should not depend on the querystring")
	}
}

// A nil Redis client must disable caching instead of panicking.
func TestRedisCacheNilClientPassthrough(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}
	h := NewRedisCache(cfg, nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "fresh")
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "fresh" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "" {
		t.Fatal("disabled cache should not set X-Cache")
	}
}
