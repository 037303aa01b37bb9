package service

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/domain"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/database"
	"github.com/maxsaigon/farm-dashboard-simple-sub001/module/tracking/internal/repository/publisher"
)

const defaultPersistBuffer = 256

type persistJob struct {
	geofence *domain.GeofenceEvent
	session  *domain.SessionSnapshot
	log      []domain.GeofenceEvent
}

// Persister stores finished sessions and forwards geofence events downstream.
// It subscribes to a Coordinator and does its I/O on its own goroutine so fix
// processing never waits on the database or the broker.
type Persister struct {
	repo    database.SessionRepository
	pub     publisher.EventPublisher
	jobs    chan persistJob
	dropped atomic.Int64
}

func NewPersister(repo database.SessionRepository, pub publisher.EventPublisher, buffer int) *Persister {
	if buffer <= 0 {
		buffer = defaultPersistBuffer
	}
	return &Persister{repo: repo, pub: pub, jobs: make(chan persistJob, buffer)}
}

// Attach subscribes the persister to the coordinator's geofence and
// session-stopped events.
func (p *Persister) Attach(c *Coordinator) {
	c.Subscribe(EventGeofence, func(ev Event) {
		p.enqueue(persistJob{geofence: ev.Geofence})
	})
	c.Subscribe(EventSessionStopped, func(ev Event) {
		p.enqueue(persistJob{session: ev.Session, log: ev.Log})
	})
}

func (p *Persister) enqueue(job persistJob) {
	select {
	case p.jobs <- job:
	default:
		n := p.dropped.Add(1)
		log.Printf("persister: queue full, dropped job (%d total)", n)
	}
}

// Dropped reports how many jobs were discarded because the queue was full.
func (p *Persister) Dropped() int64 {
	return p.dropped.Load()
}

// Run drains the queue until ctx is done, then flushes whatever is still buffered.
func (p *Persister) Run(ctx context.Context) error {
	for {
		select {
		case job := <-p.jobs:
			p.handle(ctx, job)
		case <-ctx.Done():
			p.flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (p *Persister) flush(ctx context.Context) {
	for {
		select {
		case job := <-p.jobs:
			p.handle(ctx, job)
		default:
			return
		}
	}
}

func (p *Persister) handle(ctx context.Context, job persistJob) {
	if job.geofence != nil {
		if err := p.pub.PublishGeofenceEvent(ctx, job.geofence); err != nil {
			log.Printf("persister: publish geofence event for session %s: %v", job.geofence.SessionID, err)
		}
		return
	}

	if job.session == nil {
		return
	}
	if err := p.repo.SaveSession(ctx, job.session, job.log); err != nil {
		log.Printf("persister: save session %s: %v", job.session.ID, err)
		return
	}
	if err := p.pub.PublishSessionSnapshot(ctx, job.session); err != nil {
		log.Printf("persister: publish session %s: %v", job.session.ID, err)
	}
}
