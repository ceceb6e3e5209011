package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAtomicEvent(t *testing.T) {
	ae := NewAtomicEvent[any]()
	assert.NotNil(t, ae, "NewAtomicEvent should not return nil")
	assert.NotNil(t, ae.notify, "notify channel should be initialized")
	assert.False(t, ae.HasPending())
}

func TestSendAndValue(t *testing.T) {
	aeInt := NewAtomicEvent[uint64]()
	aeInt.Send(123)
	assert.Equal(t, uint64(123), aeInt.Value(), "Value should be 123")

	aeStr := NewAtomicEvent[string]()
	aeStr.Send("NOCOW.RAW")
	assert.Equal(t, "NOCOW.RAW", aeStr.Value())
}

func TestNotificationChannel(t *testing.T) {
	ae := NewAtomicEvent[string]()

	ae.Send("frame1")
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}

	select {
	case <-ae.Channel():
		t.Fatal("channel should be empty")
	default:
	}

	// several sends collapse into one notification
	ae.Send("frame2")
	ae.Send("frame3")
	assert.True(t, ae.HasPending())
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}
	assert.False(t, ae.HasPending())
	assert.Equal(t, "frame3", ae.Value(), "Value should be the last event sent")
}

func TestConsume(t *testing.T) {
	ae := NewAtomicEvent[int]()

	_, ok := ae.Consume()
	assert.False(t, ok, "nothing pending yet")

	ae.Send(1)
	ae.Send(2)
	v, ok := ae.Consume()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = ae.Consume()
	assert.False(t, ok)
	assert.Equal(t, 2, v, "the value stays readable after consuming")
}

func TestConcurrency(t *testing.T) {
	ae := NewAtomicEvent[int]()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			ae.Send(i)
		}
		close(done)
	}()

	lastRead := -1
	var readerWg sync.WaitGroup
	readerWg.Add(1)
	go func() {
		defer readerWg.Done()
		for {
			select {
			case <-ae.Channel():
				val := ae.Value()
				if val < lastRead {
					t.Errorf("read a stale value: got %d, last was %d", val, lastRead)
				}
				lastRead = val
			case <-done:
				return
			}
		}
	}()

	readerWg.Wait()
	assert.Equal(t, 999, ae.Value(), "Final value should be 999")
}
