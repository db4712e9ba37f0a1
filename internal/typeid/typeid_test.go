package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	id := NewSnapshotID()
	if !strings.HasPrefix(id, PrefixSnapshot+"_") {
		t.Fatalf("NewSnapshotID = %q", id)
	}
	if err := Validate(id, PrefixSnapshot); err != nil {
		t.Errorf("Validate(%q) = %v", id, err)
	}
	if err := Validate(id, PrefixSession); err == nil {
		t.Error("Validate accepted the wrong prefix")
	}
	if err := Validate("garbage", PrefixSnapshot); err == nil {
		t.Error("Validate accepted garbage")
	}
	if NewSessionID() == NewSessionID() {
		t.Error("ids are not unique")
	}
}
