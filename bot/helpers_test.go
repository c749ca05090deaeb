package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDelay(t *testing.T) {
	tests := []struct {
		unit, amount string
		want         int
		err          error
	}{
		{"seconds", "1", 1, nil},
		{"seconds", "3600", 3600, nil},
		{"Seconds", "30", 30, nil},
		{"minutes", "5", 300, nil},
		{"minutes", "60", 3600, nil},
		{"hours", "1", 3600, nil},
		{"seconds", "0", 0, ErrDelayOutOfRange},
		{"seconds", "3601", 0, ErrDelayOutOfRange},
		{"minutes", "0", 0, ErrDelayOutOfRange},
		{"minutes", "61", 0, ErrDelayOutOfRange},
		{"hours", "2", 0, ErrDelayOutOfRange},
		{"seconds", "ten", 0, ErrInvalidDelayAmount},
		{"days", "1", 0, ErrInvalidDelayUnit},
	}
	for _, tt := range tests {
		got, err := ParseDelay(tt.unit, tt.amount)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, "%s %s", tt.unit, tt.amount)
			continue
		}
		assert.NoError(t, err, "%s %s", tt.unit, tt.amount)
		assert.Equal(t, tt.want, got, "%s %s", tt.unit, tt.amount)
	}
}

func TestCommandArgs(t *testing.T) {
	assert.Nil(t, commandArgs("/stats"))
	assert.Nil(t, commandArgs(""))
	assert.Equal(t, []string{"minutes", "5"}, commandArgs("/setdelay   minutes 5 "))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0s", formatUptime(0))
	assert.Equal(t, "59s", formatUptime(59*time.Second))
	assert.Equal(t, "1h 0s", formatUptime(time.Hour))
	assert.Equal(t, "2d 1m 5s", formatUptime(48*time.Hour+65*time.Second))
}
