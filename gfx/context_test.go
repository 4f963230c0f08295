package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"

	wl "waywin/client"
)

func TestChooseFormat(t *testing.T) {
	tests := []struct {
		name    string
		formats []wl.ShmFormat
		want    wl.ShmFormat
		ok      bool
	}{
		{"none", nil, 0, false},
		{"unsupported only", []wl.ShmFormat{0x34325258}, 0, false},
		{"argb only", []wl.ShmFormat{wl.ShmFormatArgb8888}, wl.ShmFormatArgb8888, true},
		{"prefers xrgb", []wl.ShmFormat{wl.ShmFormatArgb8888, wl.ShmFormatXrgb8888}, wl.ShmFormatXrgb8888, true},
		{"ignores unsupported", []wl.ShmFormat{0x34325258, wl.ShmFormatXrgb8888}, wl.ShmFormatXrgb8888, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := chooseFormat(tt.formats)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, format)
		})
	}
}
