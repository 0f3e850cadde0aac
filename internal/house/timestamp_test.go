package house

import (
	"errors"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2024-01-28 23:00:00", want: "2024-01-28 23:00:00"},
		{in: "2024-01-28T23:00:00", want: "2024-01-28 23:00:00"},
		{in: "2024-01-28 23:00:00.750", want: "2024-01-28 23:00:00"},
		{in: "2024-01-28", want: "2024-01-28 00:00:00"},
		// The offset is dropped, never converted.
		{in: "2024-01-28T23:30:00+01:00", want: "2024-01-28 23:30:00"},
		{in: "2024-01-28T23:30:00Z", want: "2024-01-28 23:30:00"},
		{in: "28/01/2024 23:00", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuery) {
					t.Errorf("ParseTimestamp(%q) error = %v, want ErrInvalidQuery", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.in, err)
			}
			if s := FormatTimestamp(got); s != tt.want {
				t.Errorf("FormatTimestamp(ParseTimestamp(%q)) = %q, want %q", tt.in, s, tt.want)
			}
		})
	}
}

func TestDateOf(t *testing.T) {
	ts, err := ParseTimestamp("2024-01-27 23:59:59")
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if got := DateOf(ts); got != "2024-01-27" {
		t.Errorf("DateOf() = %q, want 2024-01-27", got)
	}

	if _, err := ParseDate("2024-13-01"); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("ParseDate(2024-13-01) error = %v, want ErrInvalidQuery", err)
	}
}
