package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "profile:abc", Key("abc", PurposeProfile))
	assert.Equal(t, "eligibility:abc-def", Key("  ABC-DEF ", PurposeEligibility))
	assert.NotEqual(t, Key("u", PurposeSignals), Key("u", PurposeRecommendations))
}
