// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventloop

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// WatchMode selects which readiness a watch reports.
type WatchMode int

const (
	WatchRead WatchMode = 1 << iota
	WatchWrite
	WatchReadWrite = WatchRead | WatchWrite
)

// Watcher receives readiness callbacks for a watched descriptor.
type Watcher interface {
	OnFileReadReady(fd int)
	OnFileWriteReady(fd int)
}

// Watch is a registered interest in a descriptor. Stop removes it; a
// stopped watch never fires again, even if an event for it is already
// in the current batch. Stop is idempotent.
type Watch interface {
	Stop()
}

// ErrQuit is returned by Run and RunUntil when Quit was called.
var ErrQuit = errors.New("eventloop: quit")

// maxEvents is the epoll_wait batch size.
const maxEvents = 64

// Loop is an epoll readiness loop. Create with New.
type Loop struct {
	logger *slog.Logger

	epollFD int
	wakeFD  int

	// descriptors maps a watched fd to its current read and write
	// registrations. Loop goroutine only.
	descriptors map[int]*descriptor

	// taskMutex guards tasks and wakeClosed, and serializes wakeup
	// writes against Close so a late PostTask never writes to a
	// recycled descriptor number.
	taskMutex  sync.Mutex
	tasks      []func()
	wakeClosed bool

	quitting atomic.Bool
	depth    int
	closed   bool
}

type descriptor struct {
	fd         int
	read       *fileWatch
	write      *fileWatch
	registered bool
}

type fileWatch struct {
	loop       *Loop
	fd         int
	mode       WatchMode
	persistent bool
	watcher    Watcher
	stopped    bool
}

// New creates a Loop. A nil logger uses slog.Default().
func New(logger *slog.Logger) (*Loop, error) {
	if logger == nil {
		logger = slog.Default()
	}
	epollFD, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epollFD)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFD)}
	if err := unix.EpollCtl(epollFD, unix.EPOLL_CTL_ADD, wakeFD, &event); err != nil {
		unix.Close(wakeFD)
		unix.Close(epollFD)
		return nil, fmt.Errorf("epoll_ctl add eventfd: %w", err)
	}
	return &Loop{
		logger:      logger,
		epollFD:     epollFD,
		wakeFD:      wakeFD,
		descriptors: make(map[int]*descriptor),
	}, nil
}

// Watch registers watcher for readiness on fd. mode must be WatchRead
// or WatchWrite; use two watches for both directions. A descriptor can
// carry at most one read and one write watch at a time.
func (l *Loop) Watch(fd int, mode WatchMode, persistent bool, watcher Watcher) (Watch, error) {
	if l.closed {
		return nil, fmt.Errorf("eventloop: watch fd %d on closed loop", fd)
	}
	if mode != WatchRead && mode != WatchWrite {
		return nil, fmt.Errorf("eventloop: watch fd %d: mode %d must be exactly one direction", fd, mode)
	}
	state := l.descriptors[fd]
	if state == nil {
		state = &descriptor{fd: fd}
		l.descriptors[fd] = state
	}
	slot := &state.read
	if mode == WatchWrite {
		slot = &state.write
	}
	if *slot != nil {
		return nil, fmt.Errorf("eventloop: fd %d already has a %s watch", fd, mode)
	}
	watch := &fileWatch{loop: l, fd: fd, mode: mode, persistent: persistent, watcher: watcher}
	*slot = watch
	if err := l.update(state); err != nil {
		*slot = nil
		l.forgetIfIdle(state)
		return nil, err
	}
	return watch, nil
}

func (w *fileWatch) Stop() {
	if w.stopped {
		return
	}
	w.stopped = true
	w.loop.remove(w)
}

func (l *Loop) remove(watch *fileWatch) {
	state := l.descriptors[watch.fd]
	if state == nil {
		return
	}
	switch {
	case state.read == watch:
		state.read = nil
	case state.write == watch:
		state.write = nil
	default:
		return
	}
	if err := l.update(state); err != nil {
		// The fd was most likely closed before its watch was
		// stopped, which already removed it from the epoll set.
		l.logger.Debug("epoll update after stop failed", "fd", watch.fd, "error", err)
	}
	l.forgetIfIdle(state)
}

func (l *Loop) forgetIfIdle(state *descriptor) {
	if state.read == nil && state.write == nil {
		delete(l.descriptors, state.fd)
	}
}

// update brings the kernel's interest set for state.fd in line with
// its registered watches.
func (l *Loop) update(state *descriptor) error {
	var events uint32
	if state.read != nil {
		events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if state.write != nil {
		events |= unix.EPOLLOUT
	}
	if events == 0 {
		if !state.registered || l.closed {
			return nil
		}
		state.registered = false
		if err := unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_DEL, state.fd, nil); err != nil {
			return fmt.Errorf("epoll_ctl del fd %d: %w", state.fd, err)
		}
		return nil
	}
	event := unix.EpollEvent{Events: events, Fd: int32(state.fd)}
	op := unix.EPOLL_CTL_MOD
	if !state.registered {
		op = unix.EPOLL_CTL_ADD
	}
	if err := unix.EpollCtl(l.epollFD, op, state.fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl fd %d: %w", state.fd, err)
	}
	state.registered = true
	return nil
}

// PostTask queues task to run on the loop goroutine. Safe from any
// goroutine. Tasks run in the order posted.
// Tasks posted after Close are dropped.
func (l *Loop) PostTask(task func()) {
	l.taskMutex.Lock()
	defer l.taskMutex.Unlock()
	if l.wakeClosed {
		return
	}
	l.tasks = append(l.tasks, task)
	l.wakeLocked()
}

// Quit makes every active Run and RunUntil return ErrQuit. Safe from
// any goroutine.
func (l *Loop) Quit() {
	l.quitting.Store(true)
	l.taskMutex.Lock()
	defer l.taskMutex.Unlock()
	if !l.wakeClosed {
		l.wakeLocked()
	}
}

func (l *Loop) wakeLocked() {
	var one [8]byte
	one[0] = 1
	// EAGAIN means the counter is saturated, which still wakes the
	// loop.
	_, _ = unix.Write(l.wakeFD, one[:])
}

// Run processes events and tasks until Quit is called. It returns
// ErrQuit after a Quit, or an error if epoll itself fails.
func (l *Loop) Run() error {
	err := l.RunUntil(nil)
	if l.depth == 0 {
		l.quitting.Store(false)
	}
	return err
}

// RunUntil processes events and tasks until done returns true. done is
// evaluated before every wait, so a condition made true by a callback
// or task ends the call promptly. RunUntil may be called from inside a
// watcher callback or task; the inner call handles further events
// while the outer one is suspended.
func (l *Loop) RunUntil(done func() bool) error {
	if l.closed {
		return errors.New("eventloop: run on closed loop")
	}
	l.depth++
	defer func() { l.depth-- }()

	events := make([]unix.EpollEvent, maxEvents)
	for {
		if l.quitting.Load() {
			return ErrQuit
		}
		if done != nil && done() {
			return nil
		}
		l.runTasks()
		if l.quitting.Load() {
			return ErrQuit
		}
		if done != nil && done() {
			return nil
		}
		// Poll without blocking while tasks are queued so a steady
		// stream of tasks cannot starve descriptor events.
		timeout := -1
		if l.hasTasks() {
			timeout = 0
		}
		count, err := unix.EpollWait(l.epollFD, events, timeout)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}
		l.dispatch(events[:count])
	}
}

func (l *Loop) hasTasks() bool {
	l.taskMutex.Lock()
	defer l.taskMutex.Unlock()
	return len(l.tasks) > 0
}

// runTasks runs the tasks queued so far. Tasks posted while running
// wait for the next pass.
func (l *Loop) runTasks() {
	l.taskMutex.Lock()
	batch := l.tasks
	l.tasks = nil
	l.taskMutex.Unlock()
	for _, task := range batch {
		task()
	}
}

func (l *Loop) dispatch(events []unix.EpollEvent) {
	for _, event := range events {
		fd := int(event.Fd)
		if fd == l.wakeFD {
			var counter [8]byte
			_, _ = unix.Read(l.wakeFD, counter[:])
			continue
		}
		failed := event.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0
		if event.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 || failed {
			if state := l.descriptors[fd]; state != nil && state.read != nil {
				l.fire(state.read)
			}
		}
		// The read callback may have stopped watches or closed fd.
		if event.Events&unix.EPOLLOUT != 0 || failed {
			if state := l.descriptors[fd]; state != nil && state.write != nil {
				l.fire(state.write)
			}
		}
	}
}

func (l *Loop) fire(watch *fileWatch) {
	if !watch.persistent {
		watch.Stop()
	}
	if watch.mode == WatchRead {
		watch.watcher.OnFileReadReady(watch.fd)
	} else {
		watch.watcher.OnFileWriteReady(watch.fd)
	}
}

// Close releases the epoll and wakeup descriptors. Watches still
// registered are dropped without callbacks. Close must not be called
// while Run is active.
func (l *Loop) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	for _, state := range l.descriptors {
		if state.read != nil {
			state.read.stopped = true
		}
		if state.write != nil {
			state.write.stopped = true
		}
	}
	l.descriptors = nil

	l.taskMutex.Lock()
	l.wakeClosed = true
	l.tasks = nil
	wakeErr := unix.Close(l.wakeFD)
	l.taskMutex.Unlock()
	return errors.Join(wakeErr, unix.Close(l.epollFD))
}

// String implements fmt.Stringer for log attributes.
func (m WatchMode) String() string {
	switch m {
	case WatchRead:
		return "read"
	case WatchWrite:
		return "write"
	case WatchReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("WatchMode(%d)", int(m))
	}
}
