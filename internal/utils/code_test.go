package utils

import "testing"

func TestSixDigitCode(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code, err := SixDigitCode()
		if err != nil {
			t.Fatalf("SixDigitCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
	}
}
