package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniportal/uniportal-rbac/internal/logger"
	adapter "github.com/uniportal/uniportal-rbac/internal/logger/adapter/fiber"
)

type accessLine struct {
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
	Host   string `json:"host"`
	UserID string `json:"user_id"`
}

func TestNew(t *testing.T) {
	consoleJSON := logger.Log{
		EnableAccessLogToConsole: true,
		DisableCheckAlive:        true,
		Console:                  logger.Console{Enabled: true},
	}

	testCases := []struct {
		name     string
		cfg      adapter.Config
		target   string
		user     string
		expected *accessLine
	}{
		{
			name:   "disabled writes nothing",
			target: "/",
		},
		{
			name:     "json line",
			cfg:      adapter.Config{Config: consoleJSON},
			target:   "/",
			user:     "u-42",
			expected: &accessLine{Status: fiber.StatusOK, URI: "/", Method: fiber.MethodGet, Host: "example.com", UserID: "u-42"},
		},
		{
			name:     "original uri with query",
			cfg:      adapter.Config{Config: consoleJSON},
			target:   "//roles?search=reg",
			expected: &accessLine{Status: fiber.StatusNotFound, URI: "//roles?search=reg", Method: fiber.MethodGet, Host: "example.com"},
		},
		{
			name:   "check alive is skipped",
			cfg:    adapter.Config{Config: consoleJSON, CheckAliveURI: "/checkalive"},
			target: "/checkalive",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := serve(t, tc.cfg, tc.target, tc.user)

			if tc.expected == nil {
				assert.Empty(t, out)
				return
			}

			var got accessLine
			require.NoError(t, json.Unmarshal([]byte(out), &got), out)
			assert.Equal(t, *tc.expected, got)
		})
	}
}

func serve(t *testing.T, cfg adapter.Config, target, user string) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout, os.Stderr = w, w

	outC := make(chan string)

	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- strings.TrimSpace(buf.String())
	}()

	app := fiber.New()
	app.Use(adapter.New(cfg))
	app.Get("/", func(ctx *fiber.Ctx) error { return ctx.SendString("ok") })
	app.Get("/checkalive", func(ctx *fiber.Ctx) error { return ctx.SendString("OK") })

	req := httptest.NewRequest(fiber.MethodGet, target, nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	_, err = app.Test(req, -1)

	_ = w.Close()
	os.Stdout, os.Stderr = stdout, stderr

	out := <-outC

	require.NoError(t, err)

	return out
}
