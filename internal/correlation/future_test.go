package correlation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestFuture_CompleteOnce(t *testing.T) {
	f := NewFuture[int]()

	if _, ok := f.Peek(); ok {
		t.Fatal("Peek() reported completion before Complete")
	}
	if !f.Complete(1) {
		t.Fatal("first Complete() = false, want true")
	}
	if f.Complete(2) {
		t.Fatal("second Complete() = true, want false")
	}

	v, ok := f.Peek()
	if !ok || v != 1 {
		t.Errorf("Peek() = (%d, %v), want (1, true)", v, ok)
	}

	select {
	case <-f.Done():
	default:
		t.Error("Done() not closed after Complete")
	}
}

func TestFuture_ConcurrentComplete(t *testing.T) {
	f := NewFuture[int]()

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if f.Complete(v) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if winners != 1 {
		t.Errorf("winners = %d, want exactly 1", winners)
	}
}

func TestFuture_OnComplete(t *testing.T) {
	f := NewFuture[string]()

	var got []string
	f.OnComplete(func(v string) { got = append(got, "first:"+v) })
	f.OnComplete(func(v string) { got = append(got, "second:"+v) })

	if len(got) != 0 {
		t.Fatalf("callbacks ran before completion: %v", got)
	}

	f.Complete("ok")
	// Registered after completion: runs immediately.
	f.OnComplete(func(v string) { got = append(got, "late:"+v) })

	want := []string{"first:ok", "second:ok", "late:ok"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFuture_Wait(t *testing.T) {
	f := NewFuture[int]()

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Complete(7)
	}()

	v, err := f.Wait(context.Background())
	if err != nil || v != 7 {
		t.Errorf("Wait() = (%d, %v), want (7, nil)", v, err)
	}
}

func TestFuture_WaitContextCancelled(t *testing.T) {
	f := NewFuture[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}

	// The future is still usable after an abandoned wait.
	f.Complete(1)
	if v, ok := f.Peek(); !ok || v != 1 {
		t.Errorf("Peek() = (%d, %v) after abandoned wait", v, ok)
	}
}

func TestCompleted(t *testing.T) {
	f := Completed("done")
	v, err := f.Wait(context.Background())
	if err != nil || v != "done" {
		t.Errorf("Wait() = (%q, %v)", v, err)
	}
}
