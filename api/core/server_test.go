package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecks_NotInitialized(t *testing.T) {
	assert.Equal(t, "not initialized", checkDatabaseHealth(nil))
	assert.Equal(t, "not initialized", checkCacheHealth(nil))
	assert.Equal(t, "not initialized", checkStorageHealth(nil))
}
