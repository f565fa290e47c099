package push_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"upkeep/internal/push"
)

func TestDetectDevice(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		browser   string
		device    string
	}{
		{
			"chrome on windows",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			"chrome",
			"chrome on windows",
		},
		{
			"edge is not chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
			"edge",
			"edge on windows",
		},
		{
			"opera is not chrome",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 OPR/112.0.0.0",
			"opera",
			"opera on linux",
		},
		{
			"safari on macos",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
			"safari",
			"safari on macos",
		},
		{
			"chrome on ios",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/126.0.0.0 Mobile/15E148 Safari/604.1",
			"chrome",
			"chrome on ios",
		},
		{
			"firefox on android",
			"Mozilla/5.0 (Android 14; Mobile; rv:127.0) Gecko/127.0 Firefox/127.0",
			"firefox",
			"firefox on android",
		},
		{
			"empty user agent",
			"",
			"unknown",
			"unknown on unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := push.DetectDevice(tt.userAgent)
			assert.Equal(t, "web", d.Type)
			assert.Equal(t, tt.browser, d.Browser)
			assert.Equal(t, tt.device, d.Name)
		})
	}
}
