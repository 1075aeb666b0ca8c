package rtc

import (
	"testing"

	"github.com/dkeye/OneVoice/internal/config"
)

func TestNewClientConfig(t *testing.T) {
	tests := []struct {
		name    string
		in      []config.ICEServer
		want    int
		wantErr bool
	}{
		{name: "empty uses default", in: nil, want: 1},
		{name: "stun", in: []config.ICEServer{{URLs: []string{"stun:stun.example.org:3478"}}}, want: 1},
		{
			name: "turn with credentials",
			in: []config.ICEServer{
				{URLs: []string{"stun:stun.example.org"}},
				{URLs: []string{"turn:turn.example.org:3478?transport=udp"}, Username: "u", Credential: "p"},
			},
			want: 2,
		},
		{name: "turn without credentials", in: []config.ICEServer{{URLs: []string{"turn:turn.example.org"}}}, wantErr: true},
		{name: "bad scheme", in: []config.ICEServer{{URLs: []string{"http://example.org"}}}, wantErr: true},
		{name: "no urls", in: []config.ICEServer{{Username: "u"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClientConfig(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.ICEServers) != tt.want {
				t.Fatalf("servers = %d, want %d", len(got.ICEServers), tt.want)
			}
		})
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Fatalf("unexpected default: %+v", cfg)
	}
}
