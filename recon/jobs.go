package recon

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/HazelnutParadise/bayra"
)

// State is the lifecycle of one queued reconstruction job.
type State int

const (
	Queued State = iota
	Running
	Complete
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Queued:
		return "Queued"
	case Running:
		return "Running"
	case Complete:
		return "Complete"
	case Cancelled:
		return "Cancelled"
	case Failed:
		return "Failed"
	}
	return "Unknown"
}

// Request is a self-contained reconstruction job description.
type Request struct {
	Tree          string
	Alignment     map[string]string
	Model         string
	Mode          Mode
	BranchPointID string
	IncludeGaps   bool
	Workers       int
}

type job struct {
	id     string
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	result *Result
	err    error
}

// Queue runs reconstruction jobs asynchronously, a bounded number at a
// time. Jobs are identified by fresh UUIDs and cancellation is
// cooperative: a cancelled job finishes its current column boundary and
// reports Cancelled with no partial output.
type Queue struct {
	mu   sync.Mutex
	jobs map[string]*job
	sem  chan struct{}
}

// NewQueue creates a queue running at most parallel jobs at once.
func NewQueue(parallel int) *Queue {
	if parallel < 1 {
		parallel = 1
	}
	return &Queue{
		jobs: make(map[string]*job),
		sem:  make(chan struct{}, parallel),
	}
}

// Submit enqueues a job and returns its id immediately.
func (q *Queue) Submit(req Request) string {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{id: uuid.NewString(), cancel: cancel, state: Queued}
	q.mu.Lock()
	q.jobs[j.id] = j
	q.mu.Unlock()

	go q.run(ctx, j, req)
	return j.id
}

func (q *Queue) run(ctx context.Context, j *job, req Request) {
	q.sem <- struct{}{}
	defer func() { <-q.sem }()

	j.mu.Lock()
	if j.state == Cancelled {
		j.mu.Unlock()
		return
	}
	j.state = Running
	j.mu.Unlock()

	result, err := q.execute(ctx, req)

	j.mu.Lock()
	defer j.mu.Unlock()
	switch {
	case err == nil:
		j.state = Complete
		j.result = result
	case errors.Is(err, bayra.ErrCancelled):
		j.state = Cancelled
	default:
		j.state = Failed
		j.err = err
	}
}

func (q *Queue) execute(ctx context.Context, req Request) (*Result, error) {
	tree, err := ParseNewick(req.Tree)
	if err != nil {
		return nil, err
	}
	aln, err := NewAlignment(req.Alignment)
	if err != nil {
		return nil, err
	}
	return Reconstruct(ctx, tree, aln, req.Model, Options{
		Mode:          req.Mode,
		BranchPointID: req.BranchPointID,
		IncludeGaps:   req.IncludeGaps,
		Workers:       req.Workers,
	})
}

func (q *Queue) lookup(id string) (*job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return nil, fmt.Errorf("unknown job %q", id)
	}
	return j, nil
}

// Status reports a job's current state.
func (q *Queue) Status(id string) (State, error) {
	j, err := q.lookup(id)
	if err != nil {
		return Failed, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state, nil
}

// Cancel requests cooperative cancellation. A job already past the post
// keeps its final state.
func (q *Queue) Cancel(id string) error {
	j, err := q.lookup(id)
	if err != nil {
		return err
	}
	j.mu.Lock()
	if j.state == Queued {
		j.state = Cancelled
	}
	j.mu.Unlock()
	j.cancel()
	return nil
}

// Output returns a completed job's result. Errors of failed jobs are
// surfaced here.
func (q *Queue) Output(id string) (*Result, error) {
	j, err := q.lookup(id)
	if err != nil {
		return nil, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	switch j.state {
	case Complete:
		return j.result, nil
	case Failed:
		return nil, j.err
	case Cancelled:
		return nil, fmt.Errorf("%w: job %s", bayra.ErrCancelled, id)
	default:
		return nil, fmt.Errorf("job %s is %s", id, j.state)
	}
}
