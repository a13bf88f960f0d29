package planvm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestPromiseResolve(t *testing.T) {
	p := NewPromise()
	go func() {
		time.Sleep(time.Millisecond)
		p.Resolve(42)
	}()
	v, err := p.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != 42 {
		t.Errorf("v = %v", v)
	}
}

func TestPromiseReject(t *testing.T) {
	p := NewPromise()
	boom := errors.New("boom")
	p.Reject(boom)
	// settling twice is a no-op
	p.Resolve(1)
	if _, err := p.Wait(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestPromiseWaitCancel(t *testing.T) {
	p := NewPromise()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestGoRecoversPanic(t *testing.T) {
	p := Go(context.Background(), func() (any, error) {
		panic(fmt.Errorf("worker blew up"))
	})
	_, err := p.Wait(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestResolved(t *testing.T) {
	p := Resolved("done")
	v, err := p.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "done" {
		t.Errorf("v = %v", v)
	}
}
