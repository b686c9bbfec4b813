package main

import "testing"

func TestResolveDSN(t *testing.T) {
	tests := []struct {
		name      string
		flagValue string
		envValue  string
		want      string
	}{
		{name: "flag wins", flagValue: "postgres://flag", envValue: "postgres://env", want: "postgres://flag"},
		{name: "env fallback", flagValue: "", envValue: "postgres://env", want: "postgres://env"},
		{name: "blank flag falls back", flagValue: "   ", envValue: "postgres://env", want: "postgres://env"},
		{name: "both empty", flagValue: "", envValue: "  ", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveDSN(tc.flagValue, tc.envValue); got != tc.want {
				t.Errorf("resolveDSN(%q, %q) = %q, want %q", tc.flagValue, tc.envValue, got, tc.want)
			}
		})
	}
}
