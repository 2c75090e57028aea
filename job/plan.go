package job

import (
	"fmt"
	"sort"
)

type state int

const (
	stateWaiting state = iota
	stateRunning
	stateSucceeded
	stateFailed
	stateSkipped
)

// Plan tracks which jobs of a set may start. It is not safe for concurrent use.
type Plan struct {
	jobs       []Job
	index      map[string]int
	blockers   []int
	dependents [][]int
	states     []state
}

// NewPlan validates jobs: ids must be unique and blockers must name jobs of
// the set.
func NewPlan(jobs []Job) (*Plan, error) {
	ret := &Plan{
		jobs:       jobs,
		index:      make(map[string]int, len(jobs)),
		blockers:   make([]int, len(jobs)),
		dependents: make([][]int, len(jobs)),
		states:     make([]state, len(jobs)),
	}
	for i, j := range jobs {
		if _, ok := ret.index[j.ID()]; ok {
			return nil, fmt.Errorf("%w: duplicate job id %s", ErrInvalidJobs, j.ID())
		}
		ret.index[j.ID()] = i
	}
	for i, j := range jobs {
		seen := map[string]bool{}
		for _, blocker := range j.BlockerIDs() {
			if seen[blocker] {
				continue
			}
			seen[blocker] = true
			b, ok := ret.index[blocker]
			if !ok {
				return nil, fmt.Errorf("%w: job %s is blocked by unknown job %s", ErrInvalidJobs, j.ID(), blocker)
			}
			ret.blockers[i]++
			ret.dependents[b] = append(ret.dependents[b], i)
		}
	}
	return ret, nil
}

// Len returns the number of jobs.
func (p *Plan) Len() int { return len(p.jobs) }

// Ready returns waiting jobs whose blockers all succeeded, in declaration order.
func (p *Plan) Ready() []Job {
	var ret []Job
	for i, j := range p.jobs {
		if p.states[i] == stateWaiting && p.blockers[i] == 0 {
			ret = append(ret, j)
		}
	}
	return ret
}

// Start marks a job running.
func (p *Plan) Start(id string) {
	p.states[p.index[id]] = stateRunning
}

// Done records a job outcome. A failure skips the transitive dependents,
// whose ids are returned.
func (p *Plan) Done(id string, err error) []string {
	i := p.index[id]
	if err == nil {
		p.states[i] = stateSucceeded
		for _, d := range p.dependents[i] {
			p.blockers[d]--
		}
		return nil
	}
	p.states[i] = stateFailed
	var skipped []string
	queue := append([]int(nil), p.dependents[i]...)
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if p.states[d] != stateWaiting {
			continue
		}
		p.states[d] = stateSkipped
		skipped = append(skipped, p.jobs[d].ID())
		queue = append(queue, p.dependents[d]...)
	}
	return skipped
}

// Pending returns sorted ids of jobs neither started nor skipped.
func (p *Plan) Pending() []string {
	var ret []string
	for i, j := range p.jobs {
		if p.states[i] == stateWaiting {
			ret = append(ret, j.ID())
		}
	}
	sort.Strings(ret)
	return ret
}

// Unresolved returns an UnresolvedError when jobs are left pending.
func (p *Plan) Unresolved() error {
	if pending := p.Pending(); len(pending) > 0 {
		return &UnresolvedError{IDs: pending}
	}
	return nil
}
