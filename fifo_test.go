package petri_test

import (
	"sync"
	"testing"

	"github.com/jt05610/petri"
)

func TestFIFO_Concurrency(t *testing.T) {
	var wg sync.WaitGroup
	f := petri.NewFIFO[int](0)
	concurrent := 100
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				f.Push(i)
				f.Pop(1)
			}
		}()
	}
	wg.Wait()
	if f.Len() != 0 {
		t.Errorf("expected empty queue, got %d", f.Len())
	}
}

func TestFIFO_Order(t *testing.T) {
	f := petri.NewFIFO[int](3)
	f.Push(1, 2, 3, 4)
	for _, want := range []int{2, 3, 4} {
		got, ok := f.Next()
		if !ok || got != want {
			t.Fatalf("expected %d, got %d (%v)", want, got, ok)
		}
	}
	if _, ok := f.Next(); ok {
		t.Error("expected empty queue")
	}
}

func TestFIFO_PushBeyondLimit(t *testing.T) {
	f := petri.NewFIFO[int](2)
	f.Push(1)
	f.Push(2, 3, 4, 5)
	if f.Len() != 2 {
		t.Fatalf("expected 2 values, got %d", f.Len())
	}
	if got := f.Pop(2); got[0] != 4 || got[1] != 5 {
		t.Errorf("expected [4 5], got %v", got)
	}
}
