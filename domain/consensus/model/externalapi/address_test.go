package externalapi

import (
	"strings"
	"testing"
)

func TestAddressStringRoundTrip(t *testing.T) {
	hash := [AddressHashSize]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	for _, tag := range []AddressTag{AddressTagWallet, AddressTagContract} {
		address := NewAddress(tag, &hash)
		encoded := address.String()
		if !strings.HasPrefix(encoded, AddressPrefix+"1") {
			t.Fatalf("TestAddressStringRoundTrip: address %s does not "+
				"start with the expected prefix", encoded)
		}
		decoded, err := NewAddressFromString(encoded)
		if err != nil {
			t.Fatalf("TestAddressStringRoundTrip: NewAddressFromString "+
				"unexpectedly failed: %s", err)
		}
		if !decoded.Equal(address) {
			t.Fatalf("TestAddressStringRoundTrip: decoded address %s "+
				"does not match the original %s", decoded, address)
		}
		if decoded.Tag() != tag {
			t.Fatalf("TestAddressStringRoundTrip: expected tag %s, got %s",
				tag, decoded.Tag())
		}
	}
}

func TestNewAddressFromByteSliceErrors(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
	}{
		{
			name:  "too short",
			bytes: make([]byte, AddressSize-1),
		},
		{
			name:  "too long",
			bytes: make([]byte, AddressSize+1),
		},
		{
			name:  "unknown tag",
			bytes: append([]byte{7}, make([]byte, AddressHashSize)...),
		},
	}
	for _, test := range tests {
		_, err := NewAddressFromByteSlice(test.bytes)
		if err == nil {
			t.Fatalf("TestNewAddressFromByteSliceErrors: %s: "+
				"NewAddressFromByteSlice unexpectedly succeeded", test.name)
		}
	}
}
