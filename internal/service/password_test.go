package service

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePassword(t *testing.T) {
	alnum := regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		password, err := generatePassword(recoveryPasswordLength)
		assert.NoError(t, err)
		assert.Len(t, password, recoveryPasswordLength)
		assert.GreaterOrEqual(t, len(password), 8)
		assert.Regexp(t, alnum, password)
		seen[password] = true
	}

	// Collisions across 50 draws from a 62^10 space mean a broken source.
	assert.Len(t, seen, 50)
}
