package transport

import (
	"encoding/json"
	"testing"
)

func TestDecodeArgs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantLen int
	}{
		{"Empty payload", "", false, 0},
		{"Null payload", "null", false, 0},
		{"Object payload", `{"prompt":"a fox","num_images":2}`, false, 2},
		{"Malformed payload", `{broken`, true, 0},
		{"Non-object payload", `[1,2,3]`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := decodeArgs(json.RawMessage(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if args == nil {
				t.Fatal("decodeArgs() returned nil map")
			}
			if len(args) != tt.wantLen {
				t.Errorf("decodeArgs() len = %d, want %d", len(args), tt.wantLen)
			}
		})
	}
}
