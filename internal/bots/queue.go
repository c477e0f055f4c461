package bots

import "sync"

// userQueue runs jobs one at a time per key, in the order they were added.
// A key's worker goroutine exists only while it has jobs.
type userQueue struct {
	mu     sync.Mutex
	queues map[string][]func()
	wg     sync.WaitGroup
}

// Do queues job behind any earlier job for key.
func (q *userQueue) Do(key string, job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queues == nil {
		q.queues = make(map[string][]func())
	}
	jobs, running := q.queues[key]
	q.queues[key] = append(jobs, job)
	if !running {
		q.wg.Add(1)
		go q.drain(key)
	}
}

func (q *userQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		jobs := q.queues[key]
		if len(jobs) == 0 {
			delete(q.queues, key)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		q.queues[key] = jobs[1:]
		q.mu.Unlock()
		job()
	}
}

// Wait blocks until every queued job has run.
func (q *userQueue) Wait() { q.wg.Wait() }
