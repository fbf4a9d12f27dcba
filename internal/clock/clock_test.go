package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_TickerFiresOnAdvance(t *testing.T) {
	c := NewFake(epoch)
	ticker := c.NewTicker(10 * time.Second)
	defer ticker.Stop()

	c.Advance(9 * time.Second)
	select {
	case <-ticker.C:
		t.Fatal("ticker fired before its deadline")
	default:
	}

	c.Advance(time.Second)
	select {
	case at := <-ticker.C:
		assert.Equal(t, epoch.Add(10*time.Second), at)
	default:
		t.Fatal("ticker did not fire at its deadline")
	}
	assert.Equal(t, epoch.Add(10*time.Second), c.Now())
}

func TestFake_SlowConsumerDropsTicks(t *testing.T) {
	c := NewFake(epoch)
	ticker := c.NewTicker(time.Second)

	c.Advance(5 * time.Second)
	require.Len(t, ticker.C, 1)
	<-ticker.C
	assert.Len(t, ticker.C, 0)
}

func TestFake_StoppedTickerIsSilent(t *testing.T) {
	c := NewFake(epoch)
	ticker := c.NewTicker(time.Second)
	ticker.Stop()

	c.Advance(3 * time.Second)
	assert.Len(t, ticker.C, 0)
}

func TestFake_WaitForTickers(t *testing.T) {
	c := NewFake(epoch)
	done := make(chan struct{})
	go func() {
		c.WaitForTickers(1)
		close(done)
	}()

	c.NewTicker(time.Minute)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForTickers did not observe the new ticker")
	}
}

func TestFake_NewTickerPanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { NewFake(epoch).NewTicker(0) })
}
