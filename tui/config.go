package tui

import (
	"time"

	"github.com/riadafridishibly/foldersize/analysis"
)

type Config struct {
	ReplaceHomeWithTilde bool             `json:"replace_home_with_tilde"`
	ProgressUpdateFreq   time.Duration    `json:"progress_update_freq"`
	Theme                string           `json:"theme"`
	Analysis             analysis.Options `json:"analysis"`
	// Rescan makes the first scan ignore cached results
	Rescan bool `json:"rescan"`
}

func DefaultConfig() Config {
	return Config{
		ReplaceHomeWithTilde: true,
		ProgressUpdateFreq:   150 * time.Millisecond,
		Theme:                "nord",
		Analysis:             analysis.DefaultOptions(),
	}
}
