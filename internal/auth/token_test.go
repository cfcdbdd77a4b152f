package auth_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/auth"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := map[string]struct {
		token *auth.Token
		valid bool
	}{
		"missing":                 {nil, false},
		"blank access token":      {&auth.Token{RefreshToken: "refresh-only"}, false},
		"seeded without lifetime": {&auth.Token{AccessToken: "from-config"}, true},
		"issued for an hour":      {&auth.Token{AccessToken: "issued", ExpiresAt: now.Add(time.Hour)}, true},
		"lapsed":                  {&auth.Token{AccessToken: "issued", ExpiresAt: now.Add(-time.Minute)}, false},
		"inside the expiry skew":  {&auth.Token{AccessToken: "issued", ExpiresAt: now.Add(10 * time.Second)}, false},
		"past the expiry skew":    {&auth.Token{AccessToken: "issued", ExpiresAt: now.Add(2 * time.Minute)}, true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.token.Valid())
		})
	}
}

func TestToken_DecodesGrantResponse(t *testing.T) {
	t.Parallel()

	var token auth.Token
	err := json.Unmarshal([]byte(`{
		"access_token": "issued",
		"refresh_token": "refresh-issued",
		"expires_in": 900,
		"token_type": "bearer",
		"scope": "members:read rewards:read",
		"ExpiresAt": "2001-01-01T00:00:00Z"
	}`), &token)
	require.NoError(t, err)

	assert.Equal(t, "issued", token.AccessToken)
	assert.Equal(t, "refresh-issued", token.RefreshToken)
	assert.Equal(t, 900, token.ExpiresIn)
	assert.Equal(t, "members:read rewards:read", token.Scope)
	assert.True(t, token.ExpiresAt.IsZero(), "expiry is derived from expires_in, never read off the wire")
}

func TestTokenStore_SwapUnderLoad(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())

	var wg sync.WaitGroup

	for writer := range 4 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			for i := range 50 {
				store.Set(&auth.Token{AccessToken: fmt.Sprintf("writer-%d-%d", writer, i)})
			}
		}()

		go func() {
			defer wg.Done()

			for range 50 {
				if token := store.Get(); token != nil {
					assert.NotEmpty(t, token.AccessToken)
				}
			}
		}()
	}

	wg.Wait()

	require.NotNil(t, store.Get())
	assert.Regexp(t, `^writer-\d-49$`, store.Get().AccessToken)

	store.Clear()
	assert.Nil(t, store.Get())
}

func TestStaticTokenManager(t *testing.T) {
	t.Parallel()

	manager := auth.NewStaticTokenManager("static-token")

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static-token", token)

	require.ErrorIs(t, manager.RefreshToken(context.Background()), auth.ErrStaticTokenCannotRefresh)

	manager.SetToken("replaced", time.Time{})
	token, err = manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "replaced", token)

	_, err = auth.NewStaticTokenManager("").GetToken(context.Background())
	require.ErrorIs(t, err, auth.ErrNoValidCredentials)
}
