package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResendThrottle_OnePerWindow(t *testing.T) {
	start := time.Now()
	now := start
	th := NewResendThrottle(time.Minute)
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("a@x.com"))
	assert.False(t, th.Allow("a@x.com"))
	assert.True(t, th.Allow("b@x.com"), "keys are independent")

	now = start.Add(30 * time.Second)
	assert.False(t, th.Allow("a@x.com"))

	now = start.Add(61 * time.Second)
	assert.True(t, th.Allow("a@x.com"))
	assert.False(t, th.Allow("a@x.com"))
}

func TestResendThrottle_ForgetsIdleKeys(t *testing.T) {
	start := time.Now()
	now := start
	th := NewResendThrottle(time.Minute)
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("a@x.com"))
	assert.True(t, th.Allow("b@x.com"))
	assert.Len(t, th.entries, 2)

	now = start.Add(2 * time.Minute)
	assert.True(t, th.Allow("c@x.com"))
	assert.Len(t, th.entries, 1)
}

func TestResendThrottle_Disabled(t *testing.T) {
	th := NewResendThrottle(0)
	for i := 0; i < 5; i++ {
		assert.True(t, th.Allow("a@x.com"))
	}

	var nilThrottle *ResendThrottle
	assert.True(t, nilThrottle.Allow("a@x.com"))
}
