package engine

import (
	"reflect"
	"testing"

	"github.com/inamate/stamps/internal/document"
	"github.com/inamate/stamps/internal/geom"
)

func TestArrangementUndoScenario(t *testing.T) {
	a := NewArrangement(document.NewEmptyDocument(1024, 768))
	tr := geom.Transform{TX: 10, TY: 10, MidX: 25, MidY: 25}
	a.PushStamp(tr, "rect", "", document.Color{})

	if n := len(a.Get().Stamps); n != 1 {
		t.Fatalf("stamps = %d, want 1", n)
	}
	want := a.Get().Stamps[0]
	if want.Width != 50 || want.Height != 50 || want.Href != (document.Href{URL: "rect"}) {
		t.Fatalf("pushed stamp = %+v", want)
	}

	removed, ok := a.RemoveLast()
	if !ok || removed != want {
		t.Fatalf("RemoveLast = %+v, %v", removed, ok)
	}
	if len(a.Get().Stamps) != 0 || len(a.Undo()) != 1 {
		t.Fatalf("after remove: stamps %d, undo %d", len(a.Get().Stamps), len(a.Undo()))
	}

	restored, ok := a.RestoreLast()
	if !ok || restored != want {
		t.Fatalf("RestoreLast = %+v, %v", restored, ok)
	}
	if len(a.Get().Stamps) != 1 || a.Get().Stamps[0] != want {
		t.Fatalf("after restore: %+v", a.Get().Stamps)
	}
	if len(a.Undo()) != 0 {
		t.Fatalf("undo stack = %d, want 0", len(a.Undo()))
	}
}

func TestArrangementUnderflow(t *testing.T) {
	a := NewArrangement(document.NewEmptyDocument(10, 10))
	a.markClean()
	if _, ok := a.RemoveLast(); ok {
		t.Error("RemoveLast on empty document succeeded")
	}
	if _, ok := a.RestoreLast(); ok {
		t.Error("RestoreLast with empty undo stack succeeded")
	}
	if a.Dirty() {
		t.Error("no-op underflow marked the arrangement dirty")
	}
}

func pushN(a *Arrangement, urls ...string) {
	for i, u := range urls {
		a.PushStamp(geom.Transform{TX: float64(i), MidX: 1, MidY: 1}, u, "", document.Color{})
	}
}

func urls(a *Arrangement) []string {
	var out []string
	for _, s := range a.Get().Stamps {
		out = append(out, s.Href.URL)
	}
	return out
}

func TestArrangementRestoreAppends(t *testing.T) {
	a := NewArrangement(document.NewEmptyDocument(10, 10))
	pushN(a, "a", "b", "c")
	before := append([]document.Stamp(nil), a.Get().Stamps...)

	a.RemoveLast()
	a.RestoreLast()
	if !reflect.DeepEqual(a.Get().Stamps, before) {
		t.Fatalf("remove+restore changed stamps: %v", urls(a))
	}

	// Restores land on top even when other stamps were placed meanwhile.
	a.RemoveLast()
	a.PushStamp(geom.Transform{MidX: 1, MidY: 1}, "d", "", document.Color{})
	a.RestoreLast()
	if got, want := urls(a), []string{"a", "b", "d", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("stamps = %v, want %v", got, want)
	}
}

func TestArrangementDirty(t *testing.T) {
	a := NewArrangement(document.NewEmptyDocument(10, 10))
	if !a.Dirty() {
		t.Fatal("new arrangement should be dirty")
	}
	a.markClean()
	a.Get()
	if a.Dirty() {
		t.Fatal("Get marked the arrangement dirty")
	}
	a.Mut().RegisterClip(nil)
	if !a.Dirty() {
		t.Fatal("clip registration did not mark dirty")
	}
	a.markClean()
	pushN(a, "x")
	if !a.Dirty() {
		t.Fatal("push did not mark dirty")
	}
	a.markClean()
	a.RemoveLast()
	if !a.Dirty() {
		t.Fatal("remove did not mark dirty")
	}
}

func TestArrangementShift(t *testing.T) {
	a := NewArrangement(document.NewEmptyDocument(100, 100))
	pushN(a, "a", "b")
	a.RemoveLast()
	a.markClean()

	a.Shift(3)
	if got := a.Get().Stamps[0].Transform.TY; got != 3 {
		t.Errorf("stamp ty = %v, want 3", got)
	}
	if got := a.Undo()[0].Transform.TY; got != 3 {
		t.Errorf("undone stamp ty = %v, want 3", got)
	}
	if a.Get().Height != 103 {
		t.Errorf("height = %d, want 103", a.Get().Height)
	}
	if a.Dirty() {
		t.Error("Shift marked the arrangement dirty")
	}
}
