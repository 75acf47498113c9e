package config

import "time"

// Delay modes understood by the delay package.
const (
	DelayModeSleep = "sleep"
	DelayModeBusy  = "busy"
)

// ValidDelayModes lists all supported delay modes.
var ValidDelayModes = []string{DelayModeSleep, DelayModeBusy}

// LoopConfig configures the eternal loop demo.
type LoopConfig struct {
	DelayMode string     `yaml:"delay_mode"` // sleep, busy
	Workers   []LoopSpec `yaml:"workers"`
	Main      LoopSpec   `yaml:"main"`
}

// LoopSpec describes one ticking loop.
type LoopSpec struct {
	Name           string `yaml:"name"`
	Interval       string `yaml:"interval"`
	MilestoneEvery uint64 `yaml:"milestone_every,omitempty"` // 0 = never
}

// GetInterval returns the loop interval as a duration.
func (s LoopSpec) GetInterval() time.Duration {
	d, err := time.ParseDuration(s.Interval)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

func isValidDelayMode(mode string) bool {
	for _, m := range ValidDelayModes {
		if m == mode {
			return true
		}
	}
	return false
}
