package protocol

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Type
		err  bool
	}{
		{"offer", `{"type":"offer","sdp":"v=0"}`, TypeOffer, false},
		{"unknown type still decodes", `{"type":"wave"}`, Type("wave"), false},
		{"not json", `hello`, "", true},
		{"array", `[1,2]`, "", true},
		{"missing type", `{"text":"hi"}`, "", true},
		{"non-string type", `{"type":5}`, "", true},
		{"empty type", `{"type":""}`, "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			env, err := Decode([]byte(c.in))
			if c.err {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("want malformed, got %v", err)
				}
				return
			}
			if err != nil || env.Type != c.want {
				t.Fatalf("got %q, %v", env.Type, err)
			}
		})
	}
}

func TestRelayed(t *testing.T) {
	for _, ty := range []Type{TypeOffer, TypeAnswer, TypeICECandidate, TypeScreenShareStarted, TypeScreenShareStopped} {
		if !ty.Relayed() {
			t.Fatalf("%s should be relayed", ty)
		}
	}
	for _, ty := range []Type{TypeChatMessage, TypePing, TypeUserLeft, Type("wave")} {
		if ty.Relayed() {
			t.Fatalf("%s must not be relayed", ty)
		}
	}
}

func TestPingFrame(t *testing.T) {
	if string(PingFrame) != `{"type":"ping"}` {
		t.Fatalf("got %s", PingFrame)
	}
}
