package utils

import "testing"

func TestParseBet(t *testing.T) {
	cases := []struct {
		input   string
		chips   int64
		want    int64
		wantErr bool
	}{
		{"500", 1000, 500, false},
		{" 1,000 ", 5000, 1000, false},
		{"2k", 10000, 2000, false},
		{"1m", 5000000, 1000000, false},
		{"all", 1234, 1234, false},
		{"half", 1000, 500, false},
		{"50%", 2000, 1000, false},
		{"150%", 2000, 0, true},
		{"abc", 1000, 0, true},
		{"", 1000, 0, true},
	}

	for _, tc := range cases {
		got, err := ParseBet(tc.input, tc.chips)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseBet(%q): expected error, got %d", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBet(%q) failed: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseBet(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tc := range cases {
		if got := FormatNumber(tc.in); got != tc.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateProgressBar(t *testing.T) {
	if bar := CreateProgressBar(5, 0, 10, 10); len([]rune(bar)) != 10 {
		t.Errorf("expected 10-rune bar, got %q", bar)
	}
	if bar := CreateProgressBar(20, 0, 10, 10); bar != CreateProgressBar(10, 0, 10, 10) {
		t.Error("overflow should clamp to a full bar")
	}
	if bar := CreateProgressBar(3, 10, 10, 5); len([]rune(bar)) != 5 {
		t.Error("degenerate range should still fill the bar")
	}
}
