package security

import "testing"

func TestHashRefreshToken(t *testing.T) {
	h1 := HashRefreshToken("refresh-abc")
	h2 := HashRefreshToken("refresh-abc")
	if h1 != h2 {
		t.Error("same token should hash identically")
	}
	if len(h1) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(h1))
	}
	if HashRefreshToken("refresh-xyz") == h1 {
		t.Error("different tokens should not collide")
	}
}

func TestRefreshTokenHashEqual(t *testing.T) {
	stored := HashRefreshToken("the-token")

	if !RefreshTokenHashEqual("the-token", stored) {
		t.Error("matching token should compare equal")
	}
	if RefreshTokenHashEqual("other-token", stored) {
		t.Error("wrong token should not compare equal")
	}
	if RefreshTokenHashEqual("the-token", "a"+stored) {
		t.Error("length-mismatched hash should not compare equal")
	}
	if RefreshTokenHashEqual("", "") {
		t.Error("empty stored hash should never match")
	}
}
