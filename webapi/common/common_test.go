package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/guardrail"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorToStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, fiber.StatusBadRequest},
		{fiber.ErrNotFound, fiber.StatusNotFound},
		{fmt.Errorf("%w: x", domain.ErrUserNotFound), fiber.StatusNotFound},
		{fmt.Errorf("%w: window", domain.ErrValidation), fiber.StatusBadRequest},
		{fmt.Errorf("%w: x", domain.ErrConsentRequired), fiber.StatusForbidden},
		{&guardrail.IneligibleError{OfferID: "o", Result: &guardrail.EligibilityResult{}}, fiber.StatusUnprocessableEntity},
		{domain.ErrAlreadyExists, fiber.StatusConflict},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ErrorToStatusCode(tc.err), fmt.Sprint(tc.err))
	}
}

func TestProblemDetailsJSON(t *testing.T) {
	app := fiber.New()
	app.Get("/fail", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Couldn't assign persona", fmt.Errorf("%w: abc", domain.ErrUserNotFound))
	})
	app.Get("/override", func(c *fiber.Ctx) error {
		return ProblemDetailsJSON(c, "Nope", nil, "custom detail", map[string]string{"field": "required"}, fiber.StatusTeapot)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/problem+json", resp.Header.Get(fiber.HeaderContentType))
	var pd ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, "user not found: abc", pd.Detail)
	assert.Equal(t, "/fail", pd.Instance)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/override", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	pd = ProblemDetails{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	assert.Equal(t, "custom detail", pd.Detail)
	assert.Equal(t, map[string]any{"field": "required"}, pd.Errors)
}

type sample struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
}

func TestBindAndValidate(t *testing.T) {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		input, err := BindAndValidate[sample](c)
		if input == nil {
			return err
		}
		return c.SendString(input.Name)
	})

	post := func(body string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}
	assert.Equal(t, fiber.StatusOK, post(`{"name":"a","count":1}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"name":"a","count":0}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{"count":2}`))
	assert.Equal(t, fiber.StatusBadRequest, post(`{`))
}
