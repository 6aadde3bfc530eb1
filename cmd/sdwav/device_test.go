package main

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/rabidaudio/sdwav/config"
)

func failIfErr(t *testing.T, err error) {
	if err != nil {
		t.Fatal(err)
	}
}

func simConfig(t *testing.T, level log.Level) *config.Config {
	path := filepath.Join(t.TempDir(), "card.img")
	failIfErr(t, os.WriteFile(path, make([]byte, 64*512), 0o644))
	return &config.Config{LogLevel: level, Bus: config.BusSim, Image: path}
}

func TestCommandLogAtDebug(t *testing.T) {
	d, err := openDevice(simConfig(t, log.DebugLevel))
	failIfErr(t, err)
	defer d.close()
	assert.NotNil(t, d.card.Transport().Logger, "debug level shows card commands")
}

func TestCommandLogOffAtInfo(t *testing.T) {
	d, err := openDevice(simConfig(t, log.InfoLevel))
	failIfErr(t, err)
	defer d.close()
	assert.Nil(t, d.card.Transport().Logger)
}
