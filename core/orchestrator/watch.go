package orchestrator

import "training-orchestrator/core/models"

// Watch subscribes to job snapshots. The orchestrator pushes a snapshot on
// every transition and periodically while a job is active. Slow consumers
// miss snapshots rather than block the loop. The returned func unsubscribes.
func (o *Orchestrator) Watch() (<-chan *models.TrainingJob, func()) {
	o.watchMu.Lock()
	defer o.watchMu.Unlock()

	id := o.nextWatch
	o.nextWatch++
	ch := make(chan *models.TrainingJob, 16)
	o.watchers[id] = ch

	cancel := func() {
		o.watchMu.Lock()
		defer o.watchMu.Unlock()
		if _, ok := o.watchers[id]; ok {
			delete(o.watchers, id)
			close(ch)
		}
	}
	return ch, cancel
}

// broadcast fans a snapshot out to every watcher without blocking
func (o *Orchestrator) broadcast(job *models.TrainingJob) {
	snapshot := job.Clone()

	o.watchMu.Lock()
	defer o.watchMu.Unlock()
	for _, ch := range o.watchers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
