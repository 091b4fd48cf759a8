package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "series", GenerateKeyWithParams("series"))
	assert.Equal(t, "series:SPY:1mo", GenerateKeyWithParams("series", "SPY", "1mo"))
	assert.Equal(t, "n:1:2", GenerateKeyWithParams("n", 1, 2))
}
