package cache

import "testing"

func TestKeys_Shapes(t *testing.T) {
	var k Keys
	if got := k.Transaction("bitcoin", "ABC123"); got != "kyt:tx:bitcoin:abc123" {
		t.Fatalf("Transaction key = %q", got)
	}
	if got := k.Address("bitcoin", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"); got != "kyt:addr:bitcoin:1a1zp1ep5qgefi2dmptftl5slmv7divfna" {
		t.Fatalf("Address key = %q", got)
	}
	if got := k.Report("ethereum", "0xdead", 3); got != "kyt:report:ethereum:0xdead:3" {
		t.Fatalf("Report key = %q", got)
	}
}
