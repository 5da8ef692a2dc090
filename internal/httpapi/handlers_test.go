package httpapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acollings/party-rounds-backend/internal/game"
	"github.com/acollings/party-rounds-backend/internal/hub"
	"github.com/acollings/party-rounds-backend/internal/room"
)

func TestGenerateCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
		seen[code] = true
	}
	require.Greater(t, len(seen), 1, "codes should not all collide")
}

func TestRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.New(ctx, room.DefaultConfig(), game.DefaultRegistry(), zap.NewNop())
	handler := SetupRoutes(h, zap.NewNop())

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
		require.Equal(t, 200, rec.Code)
	})

	t.Run("create room mints a code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("POST", "/rooms", nil))
		require.Equal(t, 201, rec.Code)

		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Code, 6)
		// minting does not create the room; rooms exist only while occupied
		require.Nil(t, h.Get(body.Code))
	})
}
