package password

import "testing"

func TestHashRoundTrip(t *testing.T) {
	h, err := Hash("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h == "s3cret" {
		t.Fatal("hash must not equal the raw password")
	}
	if !Verify("s3cret", h) {
		t.Fatal("correct password rejected")
	}
	if Verify("wrong", h) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashSaltsFresh(t *testing.T) {
	h1, err := Hash("123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash("123456")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password should differ")
	}
	if !Verify("123456", h1) || !Verify("123456", h2) {
		t.Fatal("both hashes should verify")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	for _, digest := range []string{"", "not-a-bcrypt-hash", "$2a$xx$garbage"} {
		if Verify("anything", digest) {
			t.Fatalf("malformed digest %q accepted", digest)
		}
	}
}
