// Package worker runs tile fetches and state writes on a bounded set of
// goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/olablt/gio-viewport/logging"
)

// DefaultTimeout bounds a single task when NewPool is given zero.
const DefaultTimeout = 10 * time.Second

type Pool struct {
	workers chan struct{}
	tasks   chan Task
	quit    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type Task struct {
	// Ctx cancels the task. A task whose context is done before it starts
	// is dropped.
	Ctx  context.Context
	Work func(ctx context.Context) error
	Name string
}

// NewPool starts a pool running at most maxWorkers tasks at once, each
// limited to timeout.
func NewPool(maxWorkers int, timeout time.Duration) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers: make(chan struct{}, maxWorkers),
		tasks:   make(chan Task, 256),
		quit:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		timeout: timeout,
	}

	p.wg.Add(1)
	go p.dispatcher()
	return p
}

func (p *Pool) dispatcher() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			select {
			case p.workers <- struct{}{}:
				p.wg.Add(1)
				go p.run(task)
			case <-p.quit:
				return
			}
		}
	}
}

func (p *Pool) run(task Task) {
	defer p.wg.Done()
	defer func() { <-p.workers }()

	if task.Ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(task.Ctx, p.timeout)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()

	if err := task.Work(ctx); err != nil {
		logging.Logger().Debug("worker task failed", "task", task.Name, "err", err)
	}
}

// Submit queues task. It never blocks the caller; when the queue is full the
// task waits on its own goroutine until there is room, the task is
// cancelled or the pool shuts down. Tasks submitted after Shutdown are
// dropped.
func (p *Pool) Submit(task Task) {
	if task.Ctx == nil {
		task.Ctx = context.Background()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.tasks <- task:
	default:
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			select {
			case p.tasks <- task:
			case <-task.Ctx.Done():
			case <-p.quit:
			}
		}()
	}
}

// Shutdown cancels running tasks and waits for every pool goroutine to
// exit. Queued tasks are discarded.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
