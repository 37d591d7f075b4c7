package fanout

import "gopkg.in/tomb.v2"

type job func()

// DeliveryPool is a small bounded worker pool used to fan a single
// publish out to many subscriber endpoints without letting one slow
// endpoint delay delivery to the others. Adapted from the teacher
// repo's WorkerPool + tomb.v2 supervision idiom (internal/worker.go),
// but workers here are long-lived for the pool's lifetime instead of
// being respawned per task.
type DeliveryPool struct {
	jobs chan job
	size int
}

// NewDeliveryPool constructs a pool with size concurrent workers. The job
// queue holds size*8 pending jobs; enqueue blocks the submitting goroutine
// only once that many sends are waiting for a free worker.
func NewDeliveryPool(size int) *DeliveryPool {
	return &DeliveryPool{jobs: make(chan job, size*8), size: size}
}

// Start spawns the pool's workers under t. Each worker runs until t
// enters its dying state.
func (p *DeliveryPool) Start(t *tomb.Tomb) {
	for i := 0; i < p.size; i++ {
		t.Go(func() error {
			return p.worker(t)
		})
	}
}

func (p *DeliveryPool) worker(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case j := <-p.jobs:
			j()
		}
	}
}

func (p *DeliveryPool) submit(j job) {
	p.jobs <- j
}
