package morph

import "testing"

func TestIsValidHashAlgo(t *testing.T) {
	tests := []struct {
		algo HashAlgo
		want bool
	}{
		{HashArgon2, true},
		{HashBcrypt, true},
		{HashSHA256, true},
		{HashSHA512, true},
		{"md5", false},
		{"", false},
		{"SHA256", false},
		{" sha256", false},
	}

	for _, tt := range tests {
		if got := IsValidHashAlgo(tt.algo); got != tt.want {
			t.Errorf("IsValidHashAlgo(%q) = %v, want %v", tt.algo, got, tt.want)
		}
	}
}

func TestIsValidMaskType(t *testing.T) {
	tests := []struct {
		mt   MaskType
		want bool
	}{
		{MaskSSN, true},
		{MaskEmail, true},
		{MaskPhone, true},
		{MaskCard, true},
		{MaskIP, true},
		{MaskUUID, true},
		{MaskIBAN, true},
		{MaskName, true},
		{"zip", false},
		{"", false},
		{"EMAIL", false},
		{"email ", false},
	}

	for _, tt := range tests {
		if got := IsValidMaskType(tt.mt); got != tt.want {
			t.Errorf("IsValidMaskType(%q) = %v, want %v", tt.mt, got, tt.want)
		}
	}
}

func TestMaskTypesHaveMaskers(t *testing.T) {
	for mt := range validMaskTypes {
		if _, ok := MaskerFor(mt); !ok {
			t.Errorf("mask type %q has no masker", mt)
		}
	}
}

func TestHashAlgosHaveHashers(t *testing.T) {
	for algo := range validHashAlgos {
		if _, ok := HasherFor(algo); !ok {
			t.Errorf("hash algorithm %q has no hasher", algo)
		}
	}
}
