package core

import "testing"

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.25", 1.25, true},
		{"1,25", 1.25, true},
		{" 2.50 ", 2.5, true},
		{"-3", -3, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{"   ", 0, false},
	}
	for _, tc := range cases {
		got := ParseNumber(tc.in)
		if got.Valid != tc.ok {
			t.Fatalf("%q expected valid=%v, got %+v", tc.in, tc.ok, got)
		}
		if tc.ok && got.Value != tc.out {
			t.Fatalf("%q expected %v, got %v", tc.in, tc.out, got.Value)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText("  relevé\x00 compteur\t "); got != "relevé compteur" {
		t.Fatalf("SanitizeText = %q", got)
	}
	if got := SanitizeText("   "); got != "" {
		t.Fatalf("SanitizeText blank = %q, want empty", got)
	}
}
