package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestStateSigner_RoundTrip(t *testing.T) {
	signer := NewStateSigner("secret")

	nonce, state, err := signer.Issue()
	require.NoError(t, err)
	assert.NotEmpty(t, nonce)

	assert.NoError(t, signer.Verify(state, nonce))
	assert.ErrorIs(t, signer.Verify(state, "other-nonce"), ErrStateMismatch)
	assert.ErrorIs(t, signer.Verify(state, ""), ErrStateMismatch)
}

func TestStateSigner_RejectsForeignAndExpired(t *testing.T) {
	signer := NewStateSigner("secret")
	nonce, state, err := signer.Issue()
	require.NoError(t, err)

	assert.Error(t, NewStateSigner("another-secret").Verify(state, nonce))
	assert.Error(t, signer.Verify("garbage", nonce))

	later := NewStateSigner("secret")
	later.now = func() time.Time { return time.Now().Add(StateTTL + time.Minute) }
	assert.Error(t, later.Verify(state, nonce))
}

func newFakeGoogle(t *testing.T, profile map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "good-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProviderWithConfig(&oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
	}, srv.URL+"/userinfo")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := newFakeGoogle(t, map[string]any{
		"sub":            "10769150350006150715113082367",
		"email":          "grace@example.com",
		"email_verified": true,
		"given_name":     "Grace",
		"family_name":    "Hopper",
	})

	profile, err := newTestProvider(srv).Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "10769150350006150715113082367", profile.Subject)
	assert.Equal(t, "grace@example.com", profile.Email)
	assert.Equal(t, "Grace", profile.GivenName)
	assert.Equal(t, "Hopper", profile.FamilyName)
}

func TestGoogleProvider_ExchangeWithoutEmail(t *testing.T) {
	srv := newFakeGoogle(t, map[string]any{"sub": "1"})

	_, err := newTestProvider(srv).Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrNoEmail)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	srv := newFakeGoogle(t, nil)

	raw := newTestProvider(srv).AuthCodeURL("state-value")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "state-value", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "select_account", u.Query().Get("prompt"))
}
