package types

import "testing"

func TestPayload_IsTerminal(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    bool
	}{
		{"eot true", Payload{"eot": true}, true},
		{"eot false still terminal", Payload{"eot": false}, true},
		{"eot non-bool still terminal", Payload{"eot": "yes"}, true},
		{"no eot", Payload{"command_type": "discovery"}, false},
		{"empty", Payload{}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.payload.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionMeta_Validate(t *testing.T) {
	valid := &SessionMeta{SessionID: "sess-001", Worker: "pytest"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid meta rejected: %v", err)
	}

	if err := (&SessionMeta{Worker: "pytest"}).Validate(); err == nil {
		t.Error("empty session_id accepted")
	}
	if err := (&SessionMeta{SessionID: "sess-001"}).Validate(); err == nil {
		t.Error("empty worker label accepted")
	}
	var nilMeta *SessionMeta
	if err := nilMeta.Validate(); err == nil {
		t.Error("nil meta accepted")
	}
}
