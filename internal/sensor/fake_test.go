package sensor

import (
	"context"
	"errors"
	"testing"
)

func TestFakeTagSourceRepeatsLast(t *testing.T) {
	f := NewFakeTagSource([]string{"T1"}, []string{"T1", "T2"})
	ctx := context.Background()

	got, err := f.Tags(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("sample 0: got %v, %v", got, err)
	}
	for i := 0; i < 3; i++ {
		got, _ = f.Tags(ctx)
		if len(got) != 2 {
			t.Errorf("repeat %d: expected 2 tags, got %v", i, got)
		}
	}
	if f.Calls != 4 {
		t.Errorf("expected 4 calls, got %d", f.Calls)
	}
}

func TestFakeTagSourceErrors(t *testing.T) {
	if _, err := NewFakeTagSource().Tags(context.Background()); err == nil {
		t.Error("expected error with no samples")
	}

	f := NewFakeTagSource([]string{"T1"})
	f.Err = errors.New("reader offline")
	if _, err := f.Tags(context.Background()); err == nil {
		t.Error("expected scripted error")
	}
}

func TestFakeCardSource(t *testing.T) {
	f := NewFakeCardSource("", "C1")
	ctx := context.Background()

	if _, ok, _ := f.Card(ctx); ok {
		t.Error("expected no card first")
	}
	id, ok, err := f.Card(ctx)
	if err != nil || !ok || id != "C1" {
		t.Errorf("expected C1, got %q %v %v", id, ok, err)
	}

	empty := &FakeCardSource{}
	if _, ok, err := empty.Card(ctx); ok || err != nil {
		t.Error("empty source reads no card")
	}
}
