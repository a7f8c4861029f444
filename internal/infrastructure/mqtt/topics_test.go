package mqtt

import "testing"

func TestDeviceIDFromStateTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{topic: "homedeck/state/dev-123", want: "dev-123"},
		{topic: "homedeck/state/", want: ""},
		{topic: "homedeck/state/dev-123/extra", want: ""},
		{topic: "homedeck/other/dev-123", want: ""},
		{topic: "dev-123", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			if got := DeviceIDFromStateTopic(tt.topic); got != tt.want {
				t.Errorf("DeviceIDFromStateTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}
