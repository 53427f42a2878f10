package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTargets(t *testing.T) {
	targets, err := buildTargets(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"parkctl", "parkweb"}, targets)

	targets, err = buildTargets([]string{"parkweb"})
	require.NoError(t, err)
	assert.Equal(t, []string{"parkweb"}, targets)

	_, err = buildTargets([]string{"sensors"})
	assert.Error(t, err)
}

func TestIntegrationDevice(t *testing.T) {
	t.Setenv(DeviceEnv, "")
	_, err := integrationDevice("")
	assert.ErrorIs(t, err, errNoDevice)

	t.Setenv(DeviceEnv, "/dev/i2c-1")
	dev, err := integrationDevice("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/i2c-1", dev)

	dev, err = integrationDevice("2")
	require.NoError(t, err)
	assert.Equal(t, "2", dev)
}
