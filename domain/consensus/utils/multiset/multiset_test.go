package multiset

import (
	"testing"
)

func TestMultisetOrderIndependence(t *testing.T) {
	first := New()
	first.Add([]byte("a"))
	first.Add([]byte("b"))

	second := New()
	second.Add([]byte("b"))
	second.Add([]byte("a"))

	if !first.Hash().Equal(second.Hash()) {
		t.Fatalf("TestMultisetOrderIndependence: expected equal hashes, got %s and %s",
			first.Hash(), second.Hash())
	}
}

func TestMultisetRemove(t *testing.T) {
	empty := New()
	ms := New()
	ms.Add([]byte("record"))
	if ms.Hash().Equal(empty.Hash()) {
		t.Fatalf("TestMultisetRemove: adding a record did not change the hash")
	}
	ms.Remove([]byte("record"))
	if !ms.Hash().Equal(empty.Hash()) {
		t.Fatalf("TestMultisetRemove: removing the only record did not restore the empty hash")
	}
}

func TestMultisetSerialization(t *testing.T) {
	ms := New()
	ms.Add([]byte("record"))

	deserialized, err := FromBytes(ms.Serialize())
	if err != nil {
		t.Fatalf("FromBytes: %s", err)
	}
	if !deserialized.Hash().Equal(ms.Hash()) {
		t.Fatalf("TestMultisetSerialization: expected %s but got %s", ms.Hash(), deserialized.Hash())
	}

	emptyFromNil, err := FromBytes(nil)
	if err != nil {
		t.Fatalf("FromBytes: %s", err)
	}
	if !emptyFromNil.Hash().Equal(New().Hash()) {
		t.Fatalf("TestMultisetSerialization: nil bytes did not deserialize into the empty multiset")
	}

	_, err = FromBytes([]byte{1, 2, 3})
	if err == nil {
		t.Fatalf("TestMultisetSerialization: expected an error for malformed bytes")
	}
}
