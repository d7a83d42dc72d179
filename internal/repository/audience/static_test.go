package audience

import (
	"context"
	"testing"
)

func TestStatic_IsMember(t *testing.T) {
	s := NewStatic([]string{"Finance", " hr-team ", ""})

	tests := []struct {
		group string
		want  bool
	}{
		{"finance", true},
		{"HR-Team", true},
		{"legal", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := s.IsMember(context.Background(), tt.group)
		if err != nil {
			t.Fatalf("IsMember(%q): %v", tt.group, err)
		}
		if got != tt.want {
			t.Errorf("IsMember(%q) = %v, want %v", tt.group, got, tt.want)
		}
	}
}

func TestStatic_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStatic([]string{"a"}).IsMember(ctx, "a"); err == nil {
		t.Fatal("expected context error")
	}
}
