package signaling

import "testing"

func FuzzParseClientEvent(f *testing.F) {
	f.Add([]byte(`{"type":"find-peer","interests":["music"],"mode":"text"}`))
	f.Add([]byte(`{"type":"find-peer","mode":"video"}`))
	f.Add([]byte(`{"type":"offer","offer":{"sdp":"v=0"}}`))
	f.Add([]byte(`{"type":"answer","answer":{"sdp":"v=0"}}`))
	f.Add([]byte(`{"type":"ice-candidate","candidate":{"candidate":""}}`))
	f.Add([]byte(`{"type":"chat-message","message":"hi"}`))
	f.Add([]byte(`{"type":"disconnect-peer"}`))
	f.Add([]byte(`{"type":"`))
	f.Add([]byte(`null`))
	f.Add([]byte(``))

	f.Fuzz(func(t *testing.T, data []byte) {
		ev, err := parseClientEvent(data)
		if err != nil {
			return
		}

		// Accepted events must carry a known type and re-validate cleanly.
		switch ev.Type {
		case eventFindPeer, eventDisconnectPeer, eventOffer, eventAnswer, eventICECandidate, eventChatMessage:
		default:
			t.Fatalf("accepted event with type %q", ev.Type)
		}
		if err := ev.validate(); err != nil {
			t.Fatalf("accepted event fails validation: %v", err)
		}
	})
}
