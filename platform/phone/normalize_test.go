package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"+5511999990001", "+5511999990001"},
		{"11 99999-0001", "+5511999990001"},
		{"(11) 99999-0001", "+5511999990001"},
		{"  +5511999990001  ", "+5511999990001"},
		{"not a phone", "not a phone"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.input); got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDigits(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"+5511999990001", "5511999990001"},
		{"(11) 99999-0001", "5511999990001"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Digits(tc.input); got != tc.want {
			t.Fatalf("Digits(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
