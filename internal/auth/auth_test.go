package auth

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPasswordHash("correct horse battery staple", hash) {
		t.Error("correct password should verify")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Error("wrong password should not verify")
	}
	if CheckPasswordHash("correct horse battery staple", "not-a-hash") {
		t.Error("garbage hash should not verify")
	}
}
