package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/amirasaad/spendsense/internal/fixtures/dataset"
	"github.com/amirasaad/spendsense/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Personas(t *testing.T) {
	out, err := runCLI(t, "personas")
	require.NoError(t, err)
	for _, name := range []string{"High Utilization", "Variable Income Budgeter", "Subscription Heavy", "Savings Builder", "New User"} {
		assert.Contains(t, out, name)
	}
}

func TestRun_ProfileJSON(t *testing.T) {
	out, err := runCLI(t, "-json", "profile", dataset.SubscriptionUser.String())
	require.NoError(t, err)

	var tr trace.DecisionTrace
	require.NoError(t, json.Unmarshal([]byte(out), &tr))
	assert.Equal(t, dataset.SubscriptionUser, tr.UserID)
	assert.Equal(t, "subscription_heavy", string(tr.SelectedID))
}

func TestRun_ProfileWithoutConsent(t *testing.T) {
	out, err := runCLI(t, "profile", dataset.NewUser.String())
	require.NoError(t, err)
	assert.Contains(t, out, "New User")
	assert.Contains(t, out, "consent not granted")
}

func TestRun_Offers(t *testing.T) {
	out, err := runCLI(t, "offers", dataset.HighUtilizationUser.String())
	require.NoError(t, err)
	assert.Contains(t, out, "✗ Payday Advance")
	assert.Contains(t, out, "offer matches prohibited product term")
	assert.Contains(t, out, "✓ Budgeting App Premium")
}

func TestRun_Recommend(t *testing.T) {
	out, err := runCLI(t, "recommend", dataset.SavingsBuilderUser.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Savings Builder")
	assert.Contains(t, out, "saved Budgeting App Premium (budgeting-app)")

	_, err = runCLI(t, "recommend", dataset.NewUser.String())
	assert.ErrorContains(t, err, "consent")
}

func TestRun_Token(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := runCLI(t, "token", dataset.NewUser.String())
	assert.Error(t, err)

	t.Setenv("AUTH_JWT_SECRET", "secret")
	out, err := runCLI(t, "token", dataset.NewUser.String())
	require.NoError(t, err)
	assert.Len(t, bytes.Split(bytes.TrimSpace([]byte(out)), []byte(".")), 3)
}

func TestRun_Errors(t *testing.T) {
	_, err := runCLI(t)
	assert.EqualError(t, err, "missing command")

	_, err = runCLI(t, "profile")
	assert.EqualError(t, err, "profile needs a user id")

	_, err = runCLI(t, "profile", "nope")
	assert.ErrorContains(t, err, "invalid user id")

	_, err = runCLI(t, "dance", dataset.NewUser.String())
	assert.EqualError(t, err, `unknown command "dance"`)

	_, err = runCLI(t, "-driver", "mysql", "-url", "x", "personas")
	assert.ErrorContains(t, err, "unsupported database driver")
}
