package crypto

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if err := CheckPassword(hash, "secret"); err != nil {
		t.Fatalf("expected password to match")
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected password mismatch")
	}
}

func TestEmptyHashNeverVerifies(t *testing.T) {
	if err := CheckPassword("", ""); err == nil {
		t.Fatalf("expected empty hash to fail verification")
	}
	if err := CheckPassword("", "anything"); err == nil {
		t.Fatalf("expected empty hash to fail verification")
	}
}
