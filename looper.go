package bitmap

import (
	"runtime"
	"sync"
)

// Poster accepts tasks to run on another goroutine
type Poster interface {
	Post(task func()) bool
}

// Looper runs posted tasks one at a time, in posting order, on a single
// goroutine it owns. With lockOSThread the goroutine stays wired to one OS
// thread for its whole life, which graphics contexts require.
type Looper struct {
	name string

	mutex    sync.Mutex
	cond     *sync.Cond
	queue    []func()
	quitting bool

	done chan struct{}
}

// NewLooper creates a Looper and starts its goroutine
func NewLooper(name string, lockOSThread bool) *Looper {
	looper := &Looper{
		name: name,
		done: make(chan struct{}),
	}
	looper.cond = sync.NewCond(&looper.mutex)
	go looper.loop(lockOSThread)
	return looper
}

// Name returns the looper name
func (l *Looper) Name() string {
	return l.name
}

// Post queues task. It returns false once QuitSafely was called.
func (l *Looper) Post(task func()) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.quitting {
		return false
	}

	l.queue = append(l.queue, task)
	l.cond.Signal()
	return true
}

// QuitSafely stops accepting tasks. Tasks already queued still run, then
// the goroutine exits.
func (l *Looper) QuitSafely() {
	l.mutex.Lock()
	l.quitting = true
	l.cond.Signal()
	l.mutex.Unlock()
}

// Join blocks until the looper goroutine has exited
func (l *Looper) Join() {
	<-l.done
}

// Done is closed when the looper goroutine has exited
func (l *Looper) Done() <-chan struct{} {
	return l.done
}

func (l *Looper) next() func() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for len(l.queue) == 0 && !l.quitting {
		l.cond.Wait()
	}
	if len(l.queue) == 0 {
		return nil
	}

	task := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return task
}

func (l *Looper) loop(lockOSThread bool) {
	defer close(l.done)

	if lockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		task := l.next()
		if task == nil {
			return
		}
		l.run(task)
	}
}

func (l *Looper) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			Logger().WithField("looper", l.name).Errorf("Task panicked: %v", r)
		}
	}()
	task()
}
