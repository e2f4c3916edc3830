package adapters

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiberAdapter(t *testing.T) {
	binder, routes := newRoutes(t)
	adapter := NewFiberAdapter(binder)
	assert.Equal(t, "Fiber", adapter.Name())

	app := fiber.New()
	adapter.Mount(app, routes)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "action", method: http.MethodPost, target: "/api/Catalog.Rate", body: `{"stars":3}`,
			wantStatus: http.StatusCreated, wantBody: `{"stars":3}`},
		{name: "handler error", method: http.MethodPost, target: "/api/Catalog.Rate", body: `{"stars":9}`,
			wantStatus: http.StatusBadRequest, wantBody: `{"status_code":400,"message":"too many stars"}`},
		{name: "function", method: http.MethodGet, target: "/api/Catalog.Lookup?term=lamp%20shade",
			wantStatus: http.StatusOK, wantBody: `{"term":"lamp shade"}`},
		{name: "no content", method: http.MethodPost, target: "/api/Catalog.Forget",
			wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.JSONEq(t, tt.wantBody, string(body))
			}
		})
	}
}
