package backfill

import (
	"errors"
	"reflect"
	"testing"
)

func collect(t *testing.T, w Window, size uint64) []Window {
	t.Helper()
	var got []Window
	if err := w.Batches(size, func(b Window) error {
		got = append(got, b)
		return nil
	}); err != nil {
		t.Fatalf("batches: %v", err)
	}
	return got
}

func TestWindowBatches(t *testing.T) {
	got := collect(t, Window{From: 100, To: 105}, 2)
	want := []Window{{100, 101}, {102, 103}, {104, 105}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected batches: %+v", got)
	}

	got = collect(t, Window{From: 5, To: 5}, 10)
	if !reflect.DeepEqual(got, []Window{{5, 5}}) {
		t.Fatalf("unexpected single batch: %+v", got)
	}

	got = collect(t, Window{From: 1, To: 7}, 3)
	if len(got) != 3 || got[2] != (Window{7, 7}) {
		t.Fatalf("unexpected tail batch: %+v", got)
	}
}

func TestWindowBatchesEmptyAndInvalid(t *testing.T) {
	w := Window{From: 10, To: 9}
	if !w.Empty() {
		t.Fatalf("expected empty window")
	}
	if got := collect(t, w, 1); len(got) != 0 {
		t.Fatalf("expected no batches, got %+v", got)
	}
	if err := (Window{From: 1, To: 10}).Batches(0, func(Window) error { return nil }); err == nil {
		t.Fatalf("expected batch size error")
	}
}

func TestWindowBatchesStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Window{From: 1, To: 10}.Batches(2, func(Window) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected stop after first error, got %v after %d calls", err, calls)
	}
}
