package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalloutStatusValid(t *testing.T) {
	for _, s := range []CalloutStatus{CalloutStatusInitialized, CalloutStatusRunning, CalloutStatusPaused, CalloutStatusStopped} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, CalloutStatus("archived").Valid())
	assert.False(t, CalloutStatus("").Valid())
}
