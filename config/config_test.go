package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidaudio/sdwav/fifo"
	"github.com/rabidaudio/sdwav/player"
)

func TestDefaults(t *testing.T) {
	c, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, log.InfoLevel, c.LogLevel)
	assert.Equal(t, BusSim, c.Bus)
	assert.Equal(t, InputKeyboard, c.Input)
	assert.Equal(t, 1, c.Partition)
	assert.Equal(t, fifo.DefaultSize, c.FIFOSize)
	assert.Equal(t, time.Millisecond, c.Debounce)
	assert.Equal(t, player.DefaultConfig(), c.Player)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sdwav.yaml")
	err := os.WriteFile(path, []byte(`
log_level: debug
bus: serial
serial:
  port: /dev/ttyACM1
  baud: 115200
player:
  hold: 300ms
  jump:
    multiplier: 8
`), 0o644)
	require.NoError(t, err)

	c, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, c.LogLevel)
	assert.Equal(t, BusSerial, c.Bus)
	assert.Equal(t, "/dev/ttyACM1", c.SerialPort)
	assert.Equal(t, uint(115200), c.SerialBaud)
	assert.Equal(t, 300*time.Millisecond, c.Player.Hold)
	assert.Equal(t, 8, c.Player.Jump.Multiplier)
	assert.Equal(t, player.DefaultConfig().Jump.Threshold, c.Player.Jump.Threshold)
}

func TestEnv(t *testing.T) {
	t.Setenv("SDWAV_INPUT", "ladder")
	t.Setenv("SDWAV_PLAYER_DOUBLE_CLICK", "250ms")
	c, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, InputLadder, c.Input)
	assert.Equal(t, 250*time.Millisecond, c.Player.DoubleClick)
}

func TestInvalid(t *testing.T) {
	v := New()
	v.Set("bus", "usb")
	_, err := Load(v, "")
	assert.Error(t, err)

	v = New()
	v.Set("log_level", "loud")
	_, err = Load(v, "")
	assert.Error(t, err)

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
