package player

import (
	"time"

	"github.com/rabidaudio/sdwav/input"
	"github.com/rabidaudio/sdwav/resume"
)

type FlashConfig struct {
	Off   time.Duration // dark time before each flash
	On    time.Duration
	Pause time.Duration // after the sequence
}

type Config struct {
	Hold        time.Duration
	DoubleClick time.Duration
	IdlePoll    time.Duration // wait between button polls while idle
	MountRetry  time.Duration // wait between failed mount attempts
	ResumeFile  string
	Flash       FlashConfig
	Jump        JumpConfig
}

func DefaultConfig() Config {
	return Config{
		Hold:        input.DefaultHold,
		DoubleClick: input.DefaultDoubleClick,
		IdlePoll:    10 * time.Millisecond,
		MountRetry:  500 * time.Millisecond,
		ResumeFile:  resume.DefaultName,
		Flash: FlashConfig{
			Off:   200 * time.Millisecond,
			On:    100 * time.Millisecond,
			Pause: time.Second,
		},
		Jump: JumpConfig{
			Base:             2 * time.Second,
			Multiplier:       4,
			Threshold:        5,
			ClusterTicks:     16,
			FastClusterTicks: 8,
		},
	}
}
