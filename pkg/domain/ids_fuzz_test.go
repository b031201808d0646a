//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseAdminID checks that parsing never panics and that accepted input round-trips.
func FuzzParseAdminID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE admin_accounts;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseAdminID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Error("parser accepted the nil UUID")
		}
		roundTrip, err := ParseAdminID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
		if !utf8.ValidString(id.String()) {
			t.Error("formatted ID is not valid UTF-8")
		}
	})
}
