// Package testutils builds a fully wired HTTP app over the demo dataset for route tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	infra_cache "github.com/amirasaad/spendsense/infra/cache"
	"github.com/amirasaad/spendsense/infra/repository/memory"
	"github.com/amirasaad/spendsense/internal/fixtures/dataset"
	"github.com/amirasaad/spendsense/pkg/app"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/middleware"
	"github.com/amirasaad/spendsense/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// Now is the fixed clock every E2ETestSuite runs on.
var Now = time.Date(2024, time.June, 30, 12, 0, 0, 0, time.UTC)

// E2ETestSuite serves the API from an in-memory store seeded with the demo dataset.
type E2ETestSuite struct {
	suite.Suite
	Cfg   *config.App
	Store *memory.Store
	App   *app.App
	app   *fiber.App
	cache *infra_cache.MemoryCache
}

// TestConfig returns a test configuration with JWT enabled.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour}},
		RateLimit: &config.RateLimit{MaxRequests: 100, Window: time.Minute},
		Analysis:  config.DefaultAnalysis(),
		Guardrail: &config.Guardrail{},
	}
}

func (s *E2ETestSuite) SetupTest() {
	if s.Cfg == nil {
		s.Cfg = TestConfig()
	}
	s.Store = memory.New()
	_, err := dataset.Load(context.Background(), s.Store, Now)
	s.Require().NoError(err)

	s.cache = infra_cache.NewMemoryCache(time.Minute)
	s.App = app.New(&app.Deps{
		Store:  s.Store,
		Cache:  s.cache,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:  func() time.Time { return Now },
	}, s.Cfg)
	s.app = webapi.SetupApp(s.App)
}

func (s *E2ETestSuite) TearDownTest() {
	if s.cache != nil {
		s.Require().NoError(s.cache.Close())
	}
}

// Token issues a valid token for userID.
func (s *E2ETestSuite) Token(userID uuid.UUID) string {
	token, err := middleware.GenerateToken(s.Cfg.Auth.Jwt, userID, time.Now())
	s.Require().NoError(err)
	return token
}

// MakeRequest sends a request through the app. An empty token sends no Authorization header.
func (s *E2ETestSuite) MakeRequest(method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	return resp
}

// Decode reads resp's body into out and closes it.
func (s *E2ETestSuite) Decode(resp *http.Response, out any) {
	defer resp.Body.Close() //nolint:errcheck
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}
