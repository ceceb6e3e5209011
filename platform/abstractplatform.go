package platform

import (
	"sync"

	c "lautenbacher.net/gomovie/config"
)

// AbstractPlatform carries what the real and the simulated platform share.
type AbstractPlatform struct {
	config    *c.Config
	readyChan chan bool
	readyOnce sync.Once
}

func newAbstractPlatform(conf *c.Config) *AbstractPlatform {
	return &AbstractPlatform{
		config:    conf,
		readyChan: make(chan bool),
	}
}

func (s *AbstractPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *AbstractPlatform) setReady() {
	s.readyOnce.Do(func() { close(s.readyChan) })
}
