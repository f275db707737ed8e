package signkey

import (
	"bytes"
	"errors"
	"flag"
	"strings"
	"testing"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"default", nil, 32},
		{"override", []string{"-bytes", "16"}, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("signkey", flag.ContinueOnError)
			cfg, err := ParseConfig(fs, tt.args)
			if err != nil {
				t.Fatalf("ParseConfig() error = %v", err)
			}
			if cfg.Bytes != tt.want {
				t.Errorf("Bytes = %d, want %d", cfg.Bytes, tt.want)
			}
		})
	}
}

func TestParseConfig_UnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("signkey", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	if _, err := ParseConfig(fs, []string{"-size", "8"}); err == nil {
		t.Fatal("Expected error for unknown flag")
	}
}

func TestRun_WritesHex(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Run(Config{Bytes: 4}, buf, bytes.NewReader([]byte{0xde, 0xad, 0xbe, 0xef})); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := buf.String(); got != "SIGNING_SECRET=deadbeef\n" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestRun_DefaultReader(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Run(Config{Bytes: 32}, buf, nil); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	secret := strings.TrimPrefix(strings.TrimSpace(buf.String()), "SIGNING_SECRET=")
	if len(secret) != 64 {
		t.Errorf("Expected 64 hex chars, got %d: %q", len(secret), secret)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestRun_Errors(t *testing.T) {
	if err := Run(Config{Bytes: 0}, &bytes.Buffer{}, nil); err == nil {
		t.Error("Expected error for non-positive bytes")
	}
	if err := Run(Config{Bytes: 4}, nil, nil); err == nil {
		t.Error("Expected error for nil output")
	}
	if err := Run(Config{Bytes: 4}, &bytes.Buffer{}, errReader{}); err == nil {
		t.Error("Expected error from failing reader")
	}
	// A short read is not a key.
	if err := Run(Config{Bytes: 4}, &bytes.Buffer{}, bytes.NewReader([]byte{1, 2})); err == nil {
		t.Error("Expected error on short read")
	}
}
