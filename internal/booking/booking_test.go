package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrigger(t *testing.T) {
	t.Run("fires exactly once at the threshold", func(t *testing.T) {
		trig := NewTrigger(false)
		var fired []int
		for count := 1; count <= 8; count++ {
			if trig.Observe(count) {
				fired = append(fired, count)
			}
		}
		assert.Equal(t, []int{Threshold}, fired)
		assert.True(t, trig.Shown())
	})

	t.Run("dismissal is sticky", func(t *testing.T) {
		trig := NewTrigger(false)
		assert.False(t, trig.Observe(3))
		trig.Dismiss()
		for count := 4; count <= 10; count++ {
			assert.False(t, trig.Observe(count))
		}
		assert.False(t, trig.Shown())
	})

	t.Run("resumed session that already showed never fires", func(t *testing.T) {
		trig := NewTrigger(true)
		assert.False(t, trig.Observe(Threshold))
		assert.False(t, trig.Observe(Threshold+5))
	})

	t.Run("fires on a jump past the threshold", func(t *testing.T) {
		trig := NewTrigger(false)
		assert.True(t, trig.Observe(9))
		assert.False(t, trig.Observe(10))
	})
}

func TestURL(t *testing.T) {
	assert.Equal(t, "https://cal.com/cove.dev?email=jane%40acme.com", URL("cove.dev", "jane@acme.com"))
	assert.Equal(t, "https://cal.com/team/sales?email=a%2Bb%40x.io", URL("/team/sales/", "a+b@x.io"))
	assert.Equal(t, "https://cal.com/cove.dev?email=", URL("", ""))
}
