package worker

import "sync"

// Task is a unit of work executed by the pool.
type Task func()

// Pool runs submitted tasks on a fixed number of goroutines. It exists so
// CPU-heavy work can be kept off the request-dispatch goroutines while the
// number of concurrent executions stays bounded.
type Pool struct {
	tasks chan Task
	wg    sync.WaitGroup
}

// NewPool starts a pool with n workers. n<=0 defaults to 1.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = 1
	}

	p := &Pool{tasks: make(chan Task)}

	p.wg.Add(n)

	for i := 0; i < n; i++ {
		go p.run()
	}

	return p
}

func (p *Pool) run() {
	defer p.wg.Done()

	for task := range p.tasks {
		if task != nil {
			task()
		}
	}
}

// Submit blocks until a worker picks the task up.
func (p *Pool) Submit(t Task) {
	p.tasks <- t
}

// Stop drains the queue and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	close(p.tasks)
	p.wg.Wait()
}
