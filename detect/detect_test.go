package detect_test

import (
	"testing"
	"time"

	"github.com/lattice-db/tarantool-go/detect"
)

func TestBelowThreshold(t *testing.T) {
	t.Parallel()
	d := detect.New(5, time.Second, 10*time.Second)
	now := time.Now()
	expr := "box.space.users:get{?}"

	for i := range 4 {
		r := d.Record(expr, now.Add(time.Duration(i)*100*time.Millisecond))
		if r.Matched {
			t.Fatal("unexpected match before threshold")
		}
		if r.Alert != nil {
			t.Fatal("unexpected alert before threshold")
		}
	}
}

func TestAtThreshold(t *testing.T) {
	t.Parallel()
	d := detect.New(5, time.Second, 10*time.Second)
	now := time.Now()
	expr := "box.space.users:get{?}"

	for i := range 4 {
		d.Record(expr, now.Add(time.Duration(i)*100*time.Millisecond))
	}

	r := d.Record(expr, now.Add(400*time.Millisecond))
	if !r.Matched {
		t.Fatal("expected matched at threshold")
	}
	if r.Alert == nil {
		t.Fatal("expected alert at threshold")
	}
	if r.Alert.Count != 5 {
		t.Fatalf("got count %d, want 5", r.Alert.Count)
	}
	if r.Alert.Expr != expr {
		t.Fatalf("got expr %q, want %q", r.Alert.Expr, expr)
	}
}

func TestMatchedAfterThreshold(t *testing.T) {
	t.Parallel()
	d := detect.New(5, time.Second, 10*time.Second)
	now := time.Now()
	expr := "box.space.users:get{?}"

	for i := range 5 {
		d.Record(expr, now.Add(time.Duration(i)*100*time.Millisecond))
	}

	for i := range 5 {
		r := d.Record(expr, now.Add(time.Duration(500+i*100)*time.Millisecond))
		if !r.Matched {
			t.Fatalf("event %d: expected matched after threshold", i)
		}
		if r.Alert != nil {
			t.Fatalf("event %d: expected cooldown to suppress alert", i)
		}
	}
}

func TestWindowExpiry(t *testing.T) {
	t.Parallel()
	d := detect.New(5, time.Second, 10*time.Second)
	now := time.Now()
	expr := "box.space.users:get{?}"

	for i := range 3 {
		d.Record(expr, now.Add(time.Duration(i)*100*time.Millisecond))
	}

	after := now.Add(2 * time.Second)
	for i := range 3 {
		r := d.Record(expr, after.Add(time.Duration(i)*100*time.Millisecond))
		if r.Matched {
			t.Fatal("unexpected match: only 3 in window")
		}
	}
}

func TestCooldownExpiry(t *testing.T) {
	t.Parallel()
	d := detect.New(5, 2*time.Second, time.Second)
	now := time.Now()
	expr := "box.space.users:get{?}"

	for i := range 5 {
		d.Record(expr, now.Add(time.Duration(i)*100*time.Millisecond))
	}

	after := now.Add(1500 * time.Millisecond)
	r := d.Record(expr, after)
	if !r.Matched {
		t.Fatal("expected matched after cooldown expired")
	}
	if r.Alert == nil {
		t.Fatal("expected alert after cooldown expired")
	}
}

func TestDifferentExpressions(t *testing.T) {
	t.Parallel()
	d := detect.New(3, time.Second, 10*time.Second)
	now := time.Now()
	e1 := "box.space.users:get{?}"
	e2 := "box.space.posts.index.user_id:select{?}"

	d.Record(e1, now)
	d.Record(e2, now.Add(100*time.Millisecond))
	d.Record(e1, now.Add(200*time.Millisecond))
	d.Record(e2, now.Add(300*time.Millisecond))

	r := d.Record(e1, now.Add(400*time.Millisecond))
	if r.Alert == nil {
		t.Fatal("expected alert for e1")
	}
	if r.Alert.Expr != e1 {
		t.Fatalf("got expr %q, want %q", r.Alert.Expr, e1)
	}

	r = d.Record(e2, now.Add(500*time.Millisecond))
	if r.Alert == nil {
		t.Fatal("expected alert for e2")
	}
	if r.Alert.Expr != e2 {
		t.Fatalf("got expr %q, want %q", r.Alert.Expr, e2)
	}
}

func TestEmptyExpr(t *testing.T) {
	t.Parallel()
	d := detect.New(1, time.Second, 10*time.Second)
	r := d.Record("", time.Now())
	if r.Matched {
		t.Fatal("expected no match for empty expression")
	}
}
