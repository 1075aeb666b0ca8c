// Package rtc holds the WebRTC settings handed to browsers. Media never
// passes through this server; peers connect directly using these servers.
package rtc

import (
	"fmt"

	"github.com/dkeye/OneVoice/internal/config"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type ClientConfig struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

// NewClientConfig converts configured servers, rejecting any URL that is
// not a valid stun/stuns/turn/turns URI and TURN entries without
// credentials. An empty list yields the default public STUN server.
func NewClientConfig(servers []config.ICEServer) (ClientConfig, error) {
	if len(servers) == 0 {
		return DefaultClientConfig(), nil
	}
	out := ClientConfig{ICEServers: make([]webrtc.ICEServer, 0, len(servers))}
	for i, s := range servers {
		if len(s.URLs) == 0 {
			return ClientConfig{}, fmt.Errorf("ice server %d: no urls", i)
		}
		for _, raw := range s.URLs {
			u, err := stun.ParseURI(raw)
			if err != nil {
				return ClientConfig{}, fmt.Errorf("ice server %d: %q: %w", i, raw, err)
			}
			if (u.Scheme == stun.SchemeTypeTURN || u.Scheme == stun.SchemeTypeTURNS) && (s.Username == "" || s.Credential == "") {
				return ClientConfig{}, fmt.Errorf("ice server %d: %q needs username and credential", i, raw)
			}
		}
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out.ICEServers = append(out.ICEServers, srv)
	}
	log.Info().Str("module", "rtc").Int("ice_servers", len(out.ICEServers)).Msg("client config ready")
	return out, nil
}
