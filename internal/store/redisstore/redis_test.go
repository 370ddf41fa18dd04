package redisstore

import (
	"testing"
)

func TestEntryKey_DefaultPrefix(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := s.EntryKey("abc123"); got != "hoard:abc123" {
		t.Errorf("EntryKey() = %q, want %q", got, "hoard:abc123")
	}
}

func TestEntryKey_CustomPrefix(t *testing.T) {
	s, err := New(nil, WithPrefix("sessions"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := s.EntryKey("abc123"); got != "sessions:abc123" {
		t.Errorf("EntryKey() = %q, want %q", got, "sessions:abc123")
	}
}

func TestWithPrefix_Empty(t *testing.T) {
	if _, err := New(nil, WithPrefix("")); err == nil {
		t.Error("New(WithPrefix(\"\")) expected error, got nil")
	}
}

func TestReplyInt64(t *testing.T) {
	cases := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"integer", int64(42), 42, false},
		{"bulk string", "1700000060", 1_700_000_060, false},
		{"garbage string", "abc", 0, true},
		{"wrong type", 3.14, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := replyInt64(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("replyInt64(%v) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("replyInt64(%v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}
