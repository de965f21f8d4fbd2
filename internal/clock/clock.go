// Package clock provides cancellable scheduled tasks. Everything in a game
// session that fires later (puzzle timer, hint countdown, popup expiry) is
// scheduled through a Scheduler so it can be torn down deterministically.
package clock

import (
	"sync"
	"time"
)

type Task interface {
	// Stop cancels the task. It reports whether the call stopped a task that
	// could still fire.
	Stop() bool
}

type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Task
	Every(d time.Duration, f func()) Task
}

type Real struct{}

func NewReal() Scheduler {
	return Real{}
}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

func (Real) Every(d time.Duration, f func()) Task {
	t := &tickerTask{ticker: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.ticker.C:
				f()
			case <-t.done:
				return
			}
		}
	}()
	return t
}

type tickerTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTask) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}

// Group owns named task slots. Scheduling into an occupied slot stops the
// previous task first, and StopAll empties every slot.
type Group struct {
	mu    sync.Mutex
	tasks map[string]Task
}

func NewGroup() *Group {
	return &Group{tasks: make(map[string]Task)}
}

func (g *Group) Set(name string, t Task) {
	g.mu.Lock()
	prev := g.tasks[name]
	g.tasks[name] = t
	g.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
}

func (g *Group) Stop(name string) bool {
	g.mu.Lock()
	t, ok := g.tasks[name]
	delete(g.tasks, name)
	g.mu.Unlock()
	if !ok {
		return false
	}
	return t.Stop()
}

func (g *Group) Has(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tasks[name]
	return ok
}

func (g *Group) StopAll() {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = make(map[string]Task)
	g.mu.Unlock()
	for _, t := range tasks {
		t.Stop()
	}
}

func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}
