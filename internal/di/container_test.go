package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestore-emulator/internal/config"
)

func TestNewContainer_WiresAllModulesWithoutRedis(t *testing.T) {
	cfg := &config.Config{ProjectID: "demo"}
	c := NewContainer(cfg)

	require.NotNil(t, c.Store)
	require.NotNil(t, c.FirestoreSvc)
	require.NotNil(t, c.FirestoreGRPC)
	require.NotNil(t, c.IdentityToolkit)
	require.NotNil(t, c.IdentityRouter)
	assert.False(t, cfg.Redis.Enabled())
}

func TestJWTSecret_IsStablePerProject(t *testing.T) {
	a := jwtSecret(&config.Config{ProjectID: "demo"})
	b := jwtSecret(&config.Config{ProjectID: "demo"})
	c := jwtSecret(&config.Config{ProjectID: "other"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
