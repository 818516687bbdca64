package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformsFromDevices(t *testing.T) {
	tests := []struct {
		name    string
		devices []string
		want    []Platform
	}{
		{"phone", []string{"iPhone15,2"}, []Platform{PlatformIOS}},
		{"tablet", []string{"iPad13,1"}, []Platform{PlatformIPadOS}},
		{"wearable", []string{"Watch6,9"}, []Platform{PlatformWatchOS}},
		{"tv", []string{"AppleTV14,1"}, []Platform{PlatformTVOS}},
		{"audio accessory", []string{"AudioAccessory5,1"}, []Platform{PlatformTVOS}},
		{"computer", []string{"Mac14,5"}, []Platform{PlatformMacOS}},
		{"board id", []string{"J274"}, []Platform{PlatformMacOS}},
		{"reality device", []string{"RealityDevice14,1"}, []Platform{PlatformVisionOS}},
		{"mixed node", []string{"iPhone14,7", "iPad12,1"}, []Platform{PlatformIOS, PlatformIPadOS}},
		{"unknown ignored", []string{"Toaster1,1", ""}, nil},
		{"empty input", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlatformsFromDevices(tt.devices)
			assert.Len(t, got, len(tt.want))
			for _, p := range tt.want {
				assert.True(t, got.Has(p), "expected %s", p)
			}
		})
	}
}

func TestNormalizePlatform(t *testing.T) {
	p, ok := NormalizePlatform(" ipados ")
	assert.True(t, ok)
	assert.Equal(t, PlatformIPadOS, p)

	_, ok = NormalizePlatform("android")
	assert.False(t, ok)
}
