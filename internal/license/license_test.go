package license

import "testing"

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !Valid(key) {
			t.Fatalf("generated key %q does not match the key pattern", key)
		}
		if seen[key] {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"ABCDEFGH-IJKLMNOP-QRSTUVWX-YZ234567", true},
		{"abcdefgh-ijklmnop-qrstuvwx-yz234567", false},
		{"ABCDEFGH-IJKLMNOP-QRSTUVWX", false},
		{"ABCDEFGH-IJKLMNOP-QRSTUVWX-YZ234561", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.key); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}
