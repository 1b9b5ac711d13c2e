package chains

import "testing"

func TestValidBitcoinAddress(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", true},
		{"not-an-address", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidBitcoinAddress(c.addr); got != c.want {
			t.Errorf("ValidBitcoinAddress(%q) = %v, want %v", c.addr, got, c.want)
		}
	}
}
