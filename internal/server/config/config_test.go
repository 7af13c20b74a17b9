package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.EndpointAddr, ":8080")
	assert.Equal(t, c.DatabaseDSN, "auboutique.db")
	assert.Equal(t, c.EmailDomain, "@mail.aub.edu")
	assert.Equal(t, c.ReadTimeout, 30*time.Second)
	assert.Equal(t, c.WriteTimeout, 30*time.Second)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.EndpointAddr, ":8080")
	assert.Equal(t, c.DatabaseDSN, "auboutique.db")
	assert.Equal(t, c.EmailDomain, "@mail.aub.edu")
	assert.Equal(t, c.ReadTimeout, 30*time.Second)
	assert.Equal(t, c.WriteTimeout, 30*time.Second)
}
