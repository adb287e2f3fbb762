package watch

import "testing"

func TestSet_AddRemoveHas(t *testing.T) {
	s := NewSet()

	addr := "0xAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaaAAAAaaaa"
	s.Add(addr)

	// ключ нормализуется в lowercase
	if !s.Has("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Fatal("expected case-insensitive membership")
	}

	s.Remove(addr)
	if s.Has(addr) {
		t.Fatal("expected address removed")
	}
}

func TestSet_ListSortedWithChecksum(t *testing.T) {
	s := NewSet()
	s.Add("0xBBBBbbbbBBBBbbbbBBBBbbbbBBBBbbbbBBBBbbbb")
	s.Add("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")

	got := s.List()
	if len(got) != 2 {
		t.Fatalf("expected 2 addresses, got=%d", len(got))
	}
	if got[0].Lowercase > got[1].Lowercase {
		t.Fatal("expected sorted output")
	}
	for _, a := range got {
		if a.Checksum[:2] != "0x" || a.Checksum == a.Lowercase {
			// checksum-форма отличается регистром от lowercase
			t.Fatalf("unexpected checksum form: %+v", a)
		}
	}
}
