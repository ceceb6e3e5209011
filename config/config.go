package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

const CONFILE = "gomovie.yml"

const (
	OpenFailureHalt = "halt"
	OpenFailureSkip = "skip"
)

type Config struct {
	RealHW     bool           `yaml:"-"`
	Configfile string         `yaml:"-"`
	Media      MediaConfig    `yaml:"Media"`
	Display    DisplayConfig  `yaml:"Display"`
	Button     ButtonConfig   `yaml:"Button"`
	Playback   PlaybackConfig `yaml:"Playback"`
	Logging    LoggingConfig  `yaml:"Logging"`
	Web        WebConfig      `yaml:"Web"`
}

type MediaConfig struct {
	Dir             string   `yaml:"Dir"`
	Extension       string   `yaml:"Extension"`
	HiddenPrefix    string   `yaml:"HiddenPrefix"`
	PreferredPrefix string   `yaml:"PreferredPrefix"`
	Exclude         []string `yaml:"Exclude"`
}

type DisplayConfig struct {
	Width         int  `yaml:"Width"`
	Height        int  `yaml:"Height"`
	BytesPerPixel int  `yaml:"BytesPerPixel"`
	OffsetX       int  `yaml:"OffsetX"`
	OffsetY       int  `yaml:"OffsetY"`
	Invert        bool `yaml:"Invert"`
	SPIFrequency  int  `yaml:"SPIFrequency"`
	SPIChunk      int  `yaml:"SPIChunk"`
	DCPin         int  `yaml:"DCPin"`
	ResetPin      int  `yaml:"ResetPin"`
	BacklightPin  int  `yaml:"BacklightPin"`
}

// FrameSize is the number of bytes of one raw frame.
func (d DisplayConfig) FrameSize() int {
	return d.Width * d.Height * d.BytesPerPixel
}

type ButtonConfig struct {
	Pin            int           `yaml:"Pin"`
	ActiveLow      bool          `yaml:"ActiveLow"`
	SimulatedPress time.Duration `yaml:"SimulatedPress"`
}

type PlaybackConfig struct {
	FrameDelay  time.Duration `yaml:"FrameDelay"`
	IdleDelay   time.Duration `yaml:"IdleDelay"`
	OpenFailure string        `yaml:"OpenFailure"`
	StatsWindow int           `yaml:"StatsWindow"`
}

// WebConfig enables the runtime config API when Addr is set.
type WebConfig struct {
	Addr string `yaml:"Addr"`
}

type LoggingConfig struct {
	TUI LogConfig `yaml:"TUI"`
	HW  LogConfig `yaml:"HW"`
}

type LogConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

// Default returns the configuration of the 172x320 ST7789 board the player
// was built for. Values present in a config file override these.
func Default() Config {
	return Config{
		Media: MediaConfig{
			Dir:             "/media/movies",
			Extension:       "RAW",
			HiddenPrefix:    "_",
			PreferredPrefix: "NO",
		},
		Display: DisplayConfig{
			Width:         172,
			Height:        320,
			BytesPerPixel: 2,
			OffsetX:       34,
			Invert:        true,
			SPIFrequency:  12_000_000,
			SPIChunk:      4096,
			DCPin:         25,
			ResetPin:      27,
			BacklightPin:  18,
		},
		Button: ButtonConfig{
			Pin:            17,
			ActiveLow:      true,
			SimulatedPress: 150 * time.Millisecond,
		},
		Playback: PlaybackConfig{
			FrameDelay:  3 * time.Millisecond,
			IdleDelay:   time.Second,
			OpenFailure: OpenFailureHalt,
			StatsWindow: 120,
		},
		Logging: LoggingConfig{
			TUI: LogConfig{Level: "INFO", Format: "text"},
			HW:  LogConfig{Level: "INFO", Format: "text"},
		},
	}
}

// ReadConfig decodes cfile on top of the defaults and validates the result.
func ReadConfig(cfile string, realhw bool) (Config, error) {
	conf := Default()

	f, err := os.Open(cfile)
	if err != nil {
		return Config{}, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil {
		return Config{}, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.RealHW = realhw
	conf.Configfile = cfile

	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

// Validate reports the first inconsistency found in the configuration.
func (c *Config) Validate() error {
	if c.Media.Dir == "" {
		return fmt.Errorf("Media.Dir must not be empty")
	}
	if c.Media.Extension == "" {
		return fmt.Errorf("Media.Extension must not be empty")
	}
	if strings.Contains(c.Media.Extension, ".") {
		return fmt.Errorf("Media.Extension %q must be given without a dot", c.Media.Extension)
	}
	for _, pattern := range c.Media.Exclude {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("Media.Exclude pattern %q is invalid: %w", pattern, err)
		}
	}

	d := c.Display
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("Display.Width and Display.Height must be positive, got %dx%d", d.Width, d.Height)
	}
	if d.BytesPerPixel != 2 {
		return fmt.Errorf("Display.BytesPerPixel must be 2 (RGB565), got %d", d.BytesPerPixel)
	}
	if d.OffsetX < 0 || d.OffsetY < 0 {
		return fmt.Errorf("Display offsets must not be negative, got %d,%d", d.OffsetX, d.OffsetY)
	}
	if d.SPIChunk <= 0 || d.SPIChunk%2 != 0 {
		return fmt.Errorf("Display.SPIChunk must be a positive even number, got %d", d.SPIChunk)
	}
	if d.SPIFrequency <= 0 {
		return fmt.Errorf("Display.SPIFrequency must be positive, got %d", d.SPIFrequency)
	}

	if c.Button.Pin < 0 {
		return fmt.Errorf("Button.Pin must not be negative, got %d", c.Button.Pin)
	}

	p := c.Playback
	if p.FrameDelay < 0 {
		return fmt.Errorf("Playback.FrameDelay must not be negative, got %s", p.FrameDelay)
	}
	if p.IdleDelay <= 0 {
		return fmt.Errorf("Playback.IdleDelay must be positive, got %s", p.IdleDelay)
	}
	switch p.OpenFailure {
	case OpenFailureHalt, OpenFailureSkip:
	default:
		return fmt.Errorf("Playback.OpenFailure must be %q or %q, got %q", OpenFailureHalt, OpenFailureSkip, p.OpenFailure)
	}
	if p.StatsWindow < 2 {
		return fmt.Errorf("Playback.StatsWindow must be at least 2, got %d", p.StatsWindow)
	}
	return nil
}

// LogConfig returns the logging section matching the platform in use.
func (c *Config) LogConfig() LogConfig {
	if c.RealHW {
		return c.Logging.HW
	}
	return c.Logging.TUI
}
