package hairlens

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRandomTokenGenerator(t *testing.T) {
	assert := assert.New(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := RandomTokenGenerator{}.Next()
		if !assert.NoError(err) {
			return
		}
		assert.Len(token, 64)
		assert.False(strings.ContainsAny(token, ":+/="), token)
		assert.False(seen[token])
		seen[token] = true
	}

	token, err := RandomTokenGenerator{Bytes: 30}.Next()
	if assert.NoError(err) {
		assert.Len(token, 40)
	}
}

func TestUuidGenerator(t *testing.T) {
	assert := assert.New(t)

	id, err := UuidGenerator{}.Next()
	if !assert.NoError(err) {
		return
	}
	parsed, err := uuid.Parse(id)
	if assert.NoError(err) {
		assert.Equal(uuid.Version(4), parsed.Version())
	}
}
