package config

// RuntimeConfig is the part of the configuration that may be changed
// through the web API. Panel wiring and logging stay file-only.
type RuntimeConfig struct {
	Media    MediaConfig    `yaml:"Media" json:"Media"`
	Playback PlaybackConfig `yaml:"Playback" json:"Playback"`
}
