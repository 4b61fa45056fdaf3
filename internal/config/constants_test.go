package config

import "testing"

func TestTrimSourceExt(t *testing.T) {
	cases := map[string]string{
		"main.rn":    "main",
		"lib.rune":   "lib",
		"noext":      "noext",
		"weird.rnx":  "weird.rnx",
		"":           "",
		".rn":        "",
	}
	for in, want := range cases {
		if got := TrimSourceExt(in); got != want {
			t.Errorf("TrimSourceExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasSourceExt(t *testing.T) {
	cases := map[string]bool{
		"main.rn":         true,
		"dir/lib.rune":    true,
		"noext":           false,
		"main.rn.bak":     false,
		"rn":              false,
	}
	for in, want := range cases {
		if got := HasSourceExt(in); got != want {
			t.Errorf("HasSourceExt(%q) = %v, want %v", in, got, want)
		}
	}
}
