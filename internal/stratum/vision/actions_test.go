package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestScalePointWith_S6 reproduces §8 scenario S6: a 2560x1440 logical
// screen, 1280px image space, click at image coords (320, 200) must inject
// at host coords (640, 400) ±1.
func TestScalePointWith_S6(t *testing.T) {
	x, y := scalePointWith(2560, 320, 200)
	assert.InDelta(t, 640, x, 1)
	assert.InDelta(t, 400, y, 1)
}

func TestScalePointWith_IdentityAtImageWidth(t *testing.T) {
	x, y := scalePointWith(imageSpaceWidth, 100, 50)
	assert.Equal(t, 100, x)
	assert.Equal(t, 50, y)
}
