// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventloop

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/courier/lib/testutil"
)

// recorder counts callbacks and runs an optional hook on each.
type recorder struct {
	reads, writes int
	onRead        func(fd int)
	onWrite       func(fd int)
}

func (r *recorder) OnFileReadReady(fd int) {
	r.reads++
	if r.onRead != nil {
		r.onRead(fd)
	}
}

func (r *recorder) OnFileWriteReady(fd int) {
	r.writes++
	if r.onWrite != nil {
		r.onWrite(fd)
	}
}

func newLoop(t *testing.T) *Loop {
	t.Helper()
	loop, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { loop.Close() })
	return loop
}

func newPair(t *testing.T) (int, int) {
	t.Helper()
	first, second := testutil.SocketPair(t)
	t.Cleanup(func() {
		unix.Close(first)
		unix.Close(second)
	})
	return first, second
}

// spin runs the loop for n iterations, each of which includes an
// epoll poll.
func spin(t *testing.T, loop *Loop, n int) {
	t.Helper()
	turns := 0
	var tick func()
	tick = func() {
		turns++
		if turns < n {
			loop.PostTask(tick)
		}
	}
	loop.PostTask(tick)
	if err := loop.RunUntil(func() bool { return turns == n }); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
}

func TestPostTaskRunsInOrder(t *testing.T) {
	loop := newLoop(t)

	var order []int
	for i := range 5 {
		loop.PostTask(func() { order = append(order, i) })
	}
	loop.PostTask(loop.Quit)

	if err := loop.Run(); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run() = %v, want ErrQuit", err)
	}
	if len(order) != 5 {
		t.Fatalf("ran %d tasks, want 5", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Errorf("task %d ran at position %d", got, i)
		}
	}
}

func TestPostTaskFromOtherGoroutine(t *testing.T) {
	loop := newLoop(t)

	ran := false
	go loop.PostTask(func() {
		ran = true
		loop.Quit()
	})

	done := make(chan error, 1)
	go func() { done <- loop.Run() }()
	err := testutil.RequireReceive(t, done, 5*time.Second, "loop exit")
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("Run() = %v, want ErrQuit", err)
	}
	if !ran {
		t.Error("posted task did not run")
	}
}

func TestPersistentReadWatch(t *testing.T) {
	loop := newLoop(t)
	local, remote := newPair(t)

	buffer := make([]byte, 16)
	watcher := &recorder{}
	watcher.onRead = func(fd int) {
		// Drain so level-triggered readiness clears.
		unix.Read(fd, buffer)
	}
	watch, err := loop.Watch(local, WatchRead, true, watcher)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer watch.Stop()

	for round := 1; round <= 3; round++ {
		if _, err := unix.Write(remote, []byte("x")); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := loop.RunUntil(func() bool { return watcher.reads == round }); err != nil {
			t.Fatalf("RunUntil: %v", err)
		}
	}
}

func TestOneShotWriteWatch(t *testing.T) {
	loop := newLoop(t)
	local, _ := newPair(t)

	watcher := &recorder{}
	if _, err := loop.Watch(local, WatchWrite, false, watcher); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := loop.RunUntil(func() bool { return watcher.writes > 0 }); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}

	// The socket stays writable, so a persistent watch would keep
	// firing.
	spin(t, loop, 3)
	if watcher.writes != 1 {
		t.Errorf("one-shot write watch fired %d times", watcher.writes)
	}
	if len(loop.descriptors) != 0 {
		t.Errorf("descriptor table still holds %d entries", len(loop.descriptors))
	}
}

func TestReadAndWriteWatchesOnSameDescriptor(t *testing.T) {
	loop := newLoop(t)
	local, remote := newPair(t)

	reader := &recorder{}
	reader.onRead = func(fd int) { unix.Read(fd, make([]byte, 8)) }
	readWatch, err := loop.Watch(local, WatchRead, true, reader)
	if err != nil {
		t.Fatalf("Watch read: %v", err)
	}
	defer readWatch.Stop()
	writer := &recorder{}
	if _, err := loop.Watch(local, WatchWrite, false, writer); err != nil {
		t.Fatalf("Watch write: %v", err)
	}
	if _, err := loop.Watch(local, WatchWrite, false, writer); err == nil {
		t.Error("second write watch on one descriptor was accepted")
	}

	unix.Write(remote, []byte("y"))
	if err := loop.RunUntil(func() bool { return reader.reads > 0 && writer.writes > 0 }); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}

	// Removing the write watch must leave the read watch registered.
	unix.Write(remote, []byte("z"))
	if err := loop.RunUntil(func() bool { return reader.reads > 1 }); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
}

func TestStoppedWatchDoesNotFire(t *testing.T) {
	loop := newLoop(t)
	local, remote := newPair(t)

	watcher := &recorder{}
	watch, err := loop.Watch(local, WatchRead, true, watcher)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	watch.Stop()
	watch.Stop()

	unix.Write(remote, []byte("x"))
	spin(t, loop, 3)
	if watcher.reads != 0 {
		t.Errorf("stopped watch fired %d times", watcher.reads)
	}
}

func TestStopFromCallbackSuppressesPendingEvent(t *testing.T) {
	loop := newLoop(t)
	firstLocal, firstRemote := newPair(t)
	secondLocal, secondRemote := newPair(t)

	var secondWatch Watch
	first := &recorder{}
	second := &recorder{}
	secondReadsAtStop := -1
	first.onRead = func(fd int) {
		unix.Read(fd, make([]byte, 8))
		secondReadsAtStop = second.reads
		secondWatch.Stop()
	}

	firstWatch, err := loop.Watch(firstLocal, WatchRead, true, first)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer firstWatch.Stop()
	secondWatch, err = loop.Watch(secondLocal, WatchRead, true, second)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	// Both descriptors become ready in the same batch. The second one
	// is never drained, so it would fire on every turn if its watch
	// survived the Stop.
	unix.Write(firstRemote, []byte("a"))
	unix.Write(secondRemote, []byte("b"))
	if err := loop.RunUntil(func() bool { return first.reads > 0 }); err != nil {
		t.Fatalf("RunUntil: %v", err)
	}
	spin(t, loop, 3)
	if second.reads != secondReadsAtStop {
		t.Errorf("second watch fired %d times after Stop", second.reads-secondReadsAtStop)
	}
}

func TestNestedRunUntil(t *testing.T) {
	loop := newLoop(t)

	innerDone := false
	outerDone := false
	loop.PostTask(func() {
		loop.PostTask(func() { innerDone = true })
		if err := loop.RunUntil(func() bool { return innerDone }); err != nil {
			t.Errorf("inner RunUntil: %v", err)
		}
		outerDone = true
	})

	if err := loop.RunUntil(func() bool { return outerDone }); err != nil {
		t.Fatalf("outer RunUntil: %v", err)
	}
	if !innerDone {
		t.Error("inner condition never satisfied")
	}
}

func TestQuitStopsNestedRun(t *testing.T) {
	loop := newLoop(t)

	var innerErr error
	loop.PostTask(func() {
		loop.PostTask(loop.Quit)
		innerErr = loop.RunUntil(func() bool { return false })
	})
	if err := loop.Run(); !errors.Is(err, ErrQuit) {
		t.Fatalf("Run() = %v, want ErrQuit", err)
	}
	if !errors.Is(innerErr, ErrQuit) {
		t.Errorf("inner RunUntil = %v, want ErrQuit", innerErr)
	}

	// A new Run after the outermost one returned is not affected by the
	// previous Quit.
	ran := false
	loop.PostTask(func() { ran = true })
	if err := loop.RunUntil(func() bool { return ran }); err != nil {
		t.Errorf("RunUntil after Quit: %v", err)
	}
}

func TestWatchRejectsBothDirections(t *testing.T) {
	loop := newLoop(t)
	local, _ := newPair(t)
	if _, err := loop.Watch(local, WatchReadWrite, true, &recorder{}); err == nil {
		t.Error("Watch accepted WatchReadWrite")
	}
}

func TestCloseDropsTasks(t *testing.T) {
	loop, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := loop.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := loop.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	loop.PostTask(func() { t.Error("task ran after Close") })
	loop.Quit()
	if err := loop.RunUntil(nil); err == nil {
		t.Error("RunUntil on closed loop succeeded")
	}
}
