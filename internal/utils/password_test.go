package utils

import "testing"

func TestPasswordRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"secret123",
		"пароль-密码",
		"  spaces kept  ",
	}
	for _, plain := range cases {
		hash, err := HashPassword(plain, 4) // minimum cost keeps the test fast
		if err != nil {
			t.Fatalf("HashPassword(%q): %v", plain, err)
		}
		if hash == plain {
			t.Fatalf("hash equals plaintext for %q", plain)
		}
		if !VerifyPassword(hash, plain) {
			t.Errorf("VerifyPassword rejected the correct password %q", plain)
		}
		if VerifyPassword(hash, plain+"x") {
			t.Errorf("VerifyPassword accepted a wrong password for %q", plain)
		}
	}
}

func TestVerifyPasswordGarbageHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "whatever") {
		t.Fatal("VerifyPassword accepted a malformed hash")
	}
}
