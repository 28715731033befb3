package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// newExchangeConfig points the oauth2 exchange at a local fake token endpoint.
func newExchangeConfig(t *testing.T, status int, body string) (*oauth2.Config, *httptest.Server) {
	t.Helper()
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(tokenServer.Close)

	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  tokenServer.URL + "/authorize",
			TokenURL: tokenServer.URL + "/token",
		},
	}, tokenServer
}

func awaitResult(t *testing.T, h *OAuthHandler) OAuthResult {
	t.Helper()
	select {
	case result := <-h.Result():
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("no result delivered")
		return OAuthResult{}
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("valid callback exchanges the code", func(t *testing.T) {
		config, _ := newExchangeConfig(t, http.StatusOK,
			`{"access_token":"granted","token_type":"Bearer","expires_in":3600,"refresh_token":"r1"}`)
		h := NewOAuthHandler(config, "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=authcode", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		result := awaitResult(t, h)
		if result.Error() != nil {
			t.Fatalf("unexpected error: %v", result.Error())
		}
		if result.Token == nil || result.Token.AccessToken != "granted" {
			t.Errorf("unexpected token: %+v", result.Token)
		}

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Error("success page not rendered")
		}
	})

	t.Run("state mismatch is rejected", func(t *testing.T) {
		config, _ := newExchangeConfig(t, http.StatusOK, `{}`)
		h := NewOAuthHandler(config, "expected-state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=authcode", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		result := awaitResult(t, h)
		if result.Error() == nil {
			t.Fatal("forged state accepted")
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("denied authorization reports the provider error", func(t *testing.T) {
		config, _ := newExchangeConfig(t, http.StatusOK, `{}`)
		h := NewOAuthHandler(config, "state123")

		req := httptest.NewRequest(http.MethodGet,
			"/callback?state=state123&error=access_denied&error_description=user+denied", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		result := awaitResult(t, h)
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected access_denied error, got %v", result.Error())
		}
	})

	t.Run("failed exchange surfaces as an error result", func(t *testing.T) {
		config, _ := newExchangeConfig(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
		h := NewOAuthHandler(config, "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=badcode", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		result := awaitResult(t, h)
		if result.Error() == nil {
			t.Fatal("failed exchange reported success")
		}
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("second callback is refused", func(t *testing.T) {
		config, _ := newExchangeConfig(t, http.StatusOK,
			`{"access_token":"granted","token_type":"Bearer","expires_in":3600}`)
		h := NewOAuthHandler(config, "state123")

		first := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=authcode", nil)
		h.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=replay", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("replayed callback got %d, want 400", rec.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("routes a registered handler", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		if rec.Body.String() != "pong" {
			t.Errorf("got %q, want pong", rec.Body.String())
		}
	})

	t.Run("rejects the wrong method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("got %d, want 405", rec.Code)
		}
	})

	t.Run("applies middleware in registration order", func(t *testing.T) {
		router := NewBasicRouter()
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		want := fmt.Sprintf("%v", []string{"first", "second", "handler"})
		if got := fmt.Sprintf("%v", order); got != want {
			t.Errorf("middleware order %s, want %s", got, want)
		}
	})

	t.Run("handler interface registers all routes", func(t *testing.T) {
		config, _ := newExchangeConfig(t, http.StatusOK, `{}`)
		h := NewOAuthHandler(config, "state123")

		router := NewBasicRouter()
		router.Handler(h)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("callback route not registered: %d", rec.Code)
		}
	})
}
