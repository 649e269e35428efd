package models

import (
	"strings"
	"testing"
)

func TestNewGenerationRequest(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		numImages int
		size      string
		wantErr   bool
	}{
		{"Valid minimal request", "a cat", 1, "2K", false},
		{"Valid max count", "a dog", 3, "2048x2048", false},
		{"Prompt with surrounding whitespace", "  sunset  ", 2, "1K", false},
		{"Empty prompt", "", 1, "2K", true},
		{"Whitespace-only prompt", "   ", 1, "2K", true},
		{"Count below range", "a cat", 0, "2K", true},
		{"Count above range", "a cat", 4, "2K", true},
		{"Empty size", "a cat", 1, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewGenerationRequest(tt.prompt, tt.numImages, tt.size, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGenerationRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && req.Prompt != strings.TrimSpace(tt.prompt) {
				t.Errorf("Expected trimmed prompt %q, got %q", strings.TrimSpace(tt.prompt), req.Prompt)
			}
		})
	}
}

func TestNewImageItem(t *testing.T) {
	if _, err := NewImageItem("https://example.com/i.png", "2048x2048"); err != nil {
		t.Errorf("Valid item rejected: %v", err)
	}
	if _, err := NewImageItem("", "2048x2048"); err == nil {
		t.Error("Expected error for empty URL")
	}
	if _, err := NewImageItem("https://example.com/i.png", ""); err == nil {
		t.Error("Expected error for empty size")
	}
}

func TestNewGenerationResponse(t *testing.T) {
	item, err := NewImageItem("https://example.com/i.png", "2K")
	if err != nil {
		t.Fatalf("Failed to build item: %v", err)
	}

	tests := []struct {
		name    string
		images  []ImageItem
		count   int
		wantErr bool
	}{
		{"Count matches length", []ImageItem{item, item}, 2, false},
		{"Empty response with zero count", nil, 0, false},
		{"Count too high", []ImageItem{item}, 2, true},
		{"Count too low", []ImageItem{item, item}, 1, true},
		{"Negative count", nil, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerationResponse(tt.images, tt.count)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGenerationResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
