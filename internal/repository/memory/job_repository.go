package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"ai-research-be/internal/entity"
)

// JobHandle pairs a job's latest snapshot with its cancel hook. The owning
// goroutine swaps the snapshot pointer; readers load it without locking.
type JobHandle struct {
	snapshot atomic.Pointer[entity.Job]
	cancel   context.CancelFunc
}

func NewJobHandle(job *entity.Job, cancel context.CancelFunc) *JobHandle {
	h := &JobHandle{cancel: cancel}
	h.snapshot.Store(job.Clone())
	return h
}

// Snapshot returns the latest published state. Callers get their own copy
// and may keep it as long as they like.
func (h *JobHandle) Snapshot() *entity.Job {
	return h.snapshot.Load().Clone()
}

// Publish makes the given state the visible snapshot.
func (h *JobHandle) Publish(job *entity.Job) {
	h.snapshot.Store(job.Clone())
}

// Cancel fires the job's cancellation token. Safe to call repeatedly.
func (h *JobHandle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// JobRepository is the in-memory job arena. Running jobs never expire;
// terminal jobs are evicted after the retention window.
type JobRepository struct {
	cache *cache.Cache
}

func NewJobRepository(retention time.Duration) *JobRepository {
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	c := cache.New(retention, 10*time.Minute)
	return &JobRepository{
		cache: c,
	}
}

func (r *JobRepository) Save(jobId string, handle *JobHandle) {
	r.cache.Set(jobId, handle, cache.NoExpiration)
}

func (r *JobRepository) Get(jobId string) (*JobHandle, bool) {
	if x, found := r.cache.Get(jobId); found {
		return x.(*JobHandle), true
	}
	return nil, false
}

func (r *JobRepository) Delete(jobId string) {
	r.cache.Delete(jobId)
}

// StartRetention rearms the entry to expire after the retention window.
// Called when a job reaches a terminal status.
func (r *JobRepository) StartRetention(jobId string) {
	if x, found := r.cache.Get(jobId); found {
		r.cache.Set(jobId, x, cache.DefaultExpiration)
	}
}

func (r *JobRepository) All() []*JobHandle {
	items := r.cache.Items()
	out := make([]*JobHandle, 0, len(items))
	for _, it := range items {
		out = append(out, it.Object.(*JobHandle))
	}
	return out
}
