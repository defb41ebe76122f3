package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/tidasone/internal/config"
)

const secret = "0123456789abcdef0123456789abcdef"

// fakeGoogle sirve /authorize, /token y /profile.
func fakeGoogle(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"sub":"10769150350006150715113082367","email":"alice@example.com","name":"Alice"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(idp string) *config.Config {
	cfg := config.Default()
	cfg.JWT.Secret = secret
	cfg.Server.PublicBaseURL = "http://127.0.0.1:3000"
	cfg.Rate.Enabled = true
	cfg.Providers.Google = config.Provider{
		ClientID:     "cid",
		ClientSecret: "csecret",
		AuthURL:      idp + "/authorize",
		TokenURL:     idp + "/token",
		ProfileURL:   idp + "/profile",
	}
	return cfg
}

type harness struct {
	*httptest.Server
	app    *App
	client *http.Client
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	app, err := Build(context.Background(), cfg, Options{Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	return &harness{
		Server: srv,
		app:    app,
		client: &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
	}
}

func (h *harness) get(t *testing.T, path string, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.URL+path, nil)
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := h.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res, b
}

func (h *harness) post(t *testing.T, path string, body any) (*http.Response, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := h.client.Post(h.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res, b
}

func TestLoginFlow_EndToEnd(t *testing.T) {
	idp := fakeGoogle(t)
	h := newHarness(t, testConfig(idp.URL))

	// login: 303 al authorize del proveedor
	res, _ := h.get(t, "/auth/login/google", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	require.Contains(t, res.Header.Get("Cache-Control"), "no-store")
	loc, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(loc.String(), idp.URL+"/authorize"))
	q := loc.Query()
	require.Equal(t, "cid", q.Get("client_id"))
	require.Equal(t, "http://127.0.0.1:3000/auth/callback/google", q.Get("redirect_uri"))
	require.Equal(t, "openid email profile", q.Get("scope"))
	state := q.Get("state")
	require.NotEmpty(t, state)

	// callback con code bueno y state emitido
	res, body := h.get(t, "/auth/callback/google?code=good-code&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &tok))
	require.Equal(t, 2, strings.Count(tok.Token, "."))

	// el state es de un solo uso
	res, _ = h.get(t, "/auth/callback/google?code=good-code&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	// /auth/me con el bearer
	res, body = h.get(t, "/auth/me", map[string]string{"Authorization": "Bearer " + tok.Token})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var me struct {
		Sub      string `json:"sub"`
		Exp      int64  `json:"exp"`
		Provider string `json:"provider"`
	}
	require.NoError(t, json.Unmarshal(body, &me))
	require.Equal(t, "alice@example.com", me.Sub)
	require.Equal(t, "google", me.Provider)
	require.NotZero(t, me.Exp)
}

func TestLoginToken_IgnoresJWTTTL(t *testing.T) {
	idp := fakeGoogle(t)
	cfg := testConfig(idp.URL)
	cfg.JWT.TTL = 5 * time.Minute
	h := newHarness(t, cfg)

	res, _ := h.get(t, "/auth/login/google", nil)
	loc, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")

	start := time.Now()
	res, body := h.get(t, "/auth/callback/google?code=good-code&state="+url.QueryEscape(state), nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var tok struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &tok))

	claims, err := h.app.Issuer.Parse(tok.Token)
	require.NoError(t, err)
	exp := time.Unix(claims.ExpiresAt, 0)
	require.WithinDuration(t, start.Add(time.Hour), exp, 5*time.Second)
}

func TestAuthErrors(t *testing.T) {
	idp := fakeGoogle(t)
	h := newHarness(t, testConfig(idp.URL))

	tests := []struct {
		name   string
		path   string
		hdr    map[string]string
		status int
		code   string
	}{
		{"unknown provider login", "/auth/login/myspace", nil, http.StatusBadRequest, "UNKNOWN_PROVIDER"},
		{"unknown provider callback", "/auth/callback/myspace?code=x", nil, http.StatusBadRequest, "UNKNOWN_PROVIDER"},
		{"missing code", "/auth/callback/google", nil, http.StatusBadRequest, "MISSING_CODE"},
		{"missing state", "/auth/callback/google?code=good-code", nil, http.StatusBadRequest, "INVALID_STATE"},
		{"me without bearer", "/auth/me", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"me with garbage", "/auth/me", map[string]string{"Authorization": "Bearer a.b.c"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"unknown route", "/nope", nil, http.StatusNotFound, "ROUTE_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := h.get(t, tt.path, tt.hdr)
			require.Equal(t, tt.status, res.StatusCode, string(body))
			var e struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(body, &e))
			require.Equal(t, tt.code, e.Code)
		})
	}
}

func TestCallback_ExchangeFailureWithoutStateBinding(t *testing.T) {
	idp := fakeGoogle(t)
	cfg := testConfig(idp.URL)
	cfg.State.Enforce = false
	h := newHarness(t, cfg)

	res, body := h.get(t, "/auth/callback/google?code=bad-code", nil)
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)
	require.Contains(t, string(body), "Token exchange failed")

	res, _ = h.get(t, "/auth/callback/google?code=good-code", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestCommsec_HandshakeAndAEAD(t *testing.T) {
	h := newHarness(t, testConfig("http://127.0.0.1:1"))

	res, body := h.get(t, "/commsec/keys/pq", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var pub struct {
		Algorithm    string `json:"algorithm"`
		KEMPublicKey string `json:"kem_public_key"`
	}
	require.NoError(t, json.Unmarshal(body, &pub))
	require.Equal(t, "ML-KEM-1024", pub.Algorithm)

	res, body = h.post(t, "/commsec/encapsulate", map[string]string{"public_key": pub.KEMPublicKey})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var enc struct {
		Ciphertext   string `json:"ciphertext"`
		SharedSecret string `json:"shared_secret"`
	}
	require.NoError(t, json.Unmarshal(body, &enc))

	// sin secret_key decapsula con la clave del servidor
	res, body = h.post(t, "/commsec/decapsulate", map[string]string{"ciphertext": enc.Ciphertext})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var dec struct {
		SharedSecret string `json:"shared_secret"`
	}
	require.NoError(t, json.Unmarshal(body, &dec))
	require.Equal(t, enc.SharedSecret, dec.SharedSecret)

	zero32 := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="
	zero12 := "AAAAAAAAAAAAAAAA"
	res, body = h.post(t, "/commsec/aead/encrypt", map[string]string{"key": zero32, "nonce": zero12, "plaintext": "hello"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	require.JSONEq(t, `{"ciphertext":"psIsUSKLkI9/Yv/Opqkvq+85v02T"}`, string(body))

	res, body = h.post(t, "/commsec/aead/decrypt", map[string]string{"key": zero32, "nonce": zero12, "ciphertext": "psIsUSKLkI9/Yv/Opqkvq+85v02T"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	require.JSONEq(t, `{"plaintext":"hello"}`, string(body))

	// aad viaja como texto
	res, body = h.post(t, "/commsec/aead/encrypt", map[string]string{"key": zero32, "nonce": zero12, "plaintext": "hello", "associated_data": "meta"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	require.JSONEq(t, `{"ciphertext":"psIsUSIjhF7cArKlXTXcuLzAnudH"}`, string(body))

	res, body = h.post(t, "/commsec/aead/decrypt", map[string]string{"key": zero32, "nonce": zero12, "ciphertext": "psIsUSIjhF7cArKlXTXcuLzAnudH", "associated_data": "meta"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	require.JSONEq(t, `{"plaintext":"hello"}`, string(body))

	// tag alterado
	res, _ = h.post(t, "/commsec/aead/decrypt", map[string]string{"key": zero32, "nonce": zero12, "ciphertext": "psIsUSKLkI9/Yv/Opqkvq+85v02U"})
	require.Equal(t, http.StatusInternalServerError, res.StatusCode)

	// nonce corto
	res, _ = h.post(t, "/commsec/aead/encrypt", map[string]string{"key": zero32, "nonce": "AAAA", "plaintext": "hello"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	// base64 inválido
	res, _ = h.post(t, "/commsec/encapsulate", map[string]string{"public_key": "%%%"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	// JSON inválido
	res, err := h.client.Post(h.URL+"/commsec/encapsulate", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCommsec_KeyPairExposure(t *testing.T) {
	t.Run("exposed", func(t *testing.T) {
		h := newHarness(t, testConfig("http://127.0.0.1:1"))
		res, body := h.post(t, "/commsec/keypair", struct{}{})
		require.Equal(t, http.StatusOK, res.StatusCode)
		var kp struct {
			PublicKey string `json:"public_key"`
			SecretKey string `json:"secret_key"`
		}
		require.NoError(t, json.Unmarshal(body, &kp))
		require.NotEmpty(t, kp.PublicKey)
		require.NotEmpty(t, kp.SecretKey)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig("http://127.0.0.1:1")
		cfg.Commsec.ExposeSecretKey = false
		h := newHarness(t, cfg)
		res, _ := h.post(t, "/commsec/keypair", struct{}{})
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestReadinessAndMetrics(t *testing.T) {
	h := newHarness(t, testConfig("http://127.0.0.1:1"))

	res, body := h.get(t, "/readyz", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `"status":"ready"`)
	require.Contains(t, string(body), `"google"`)

	res, _ = h.get(t, "/healthz", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = h.get(t, "/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), `route="/readyz"`)
}

func TestBuild_RejectsBadSecret(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.JWT.Secret = "short"
	_, err := Build(context.Background(), cfg, Options{})
	require.Error(t, err)
}
