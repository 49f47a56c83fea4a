package whispercli

import "testing"

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text",
			in:   "hello world\n",
			want: "hello world",
		},
		{
			name: "skips bracketed lines",
			in:   "[00:00:00.000 --> 00:00:04.000]\nhello\n[whisper] done\nworld\n",
			want: "hello world",
		},
		{
			name: "skips blank lines",
			in:   "\n\n  first  \n\nsecond\n",
			want: "first second",
		},
		{
			name: "empty output",
			in:   "",
			want: "",
		},
		{
			name: "only status lines",
			in:   "[main] processing\n[main] done\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOutput(tt.in); got != tt.want {
				t.Errorf("ParseOutput(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_MissingBinary(t *testing.T) {
	// An explicit nonexistent model path forces the model lookup to fail
	// even on hosts that happen to have whisper-cli installed.
	_, err := New("definitely-not-a-real-model", WithBinaryPath("/bin/true"))
	if err == nil {
		t.Fatal("expected error for missing model")
	}
}
