package util

import "testing"

func TestExtractIPAddress(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"remote with port", "10.0.0.5:51234", "", "10.0.0.5"},
		{"remote without port", "10.0.0.5", "", "10.0.0.5"},
		{"forwarded single", "10.0.0.5:1", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.5:1", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"forwarded with port", "", "203.0.113.7:8080", "203.0.113.7"},
		{"ipv6 remote", "[2001:db8::1]:443", "", "2001:db8::1"},
		{"nothing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractIPAddress(tt.remote, tt.xff); got != tt.want {
				t.Errorf("ExtractIPAddress() = %q, want %q", got, tt.want)
			}
		})
	}
}
