package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"ai-research-be/internal/config"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/memory"
	"ai-research-be/internal/repository/specification"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/llm"
)

// ============================================================================
// Logger / publisher fakes
// ============================================================================

// recordingLogger satisfies logger.ILogger without touching the filesystem.
// stored feeds GetLogs/GetLogById for the admin service tests.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logger.LogEntry

	stored     []logger.LogEntry
	lastLevel  string
	lastLimit  int
	lastOffset int
}

func (l *recordingLogger) log(level, module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logger.LogEntry{Level: level, Module: module, Message: message, Details: details})
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.log("debug", module, message, details)
}

func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.log("info", module, message, details)
}

func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.log("warn", module, message, details)
}

func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.log("error", module, message, details)
}

func (l *recordingLogger) Sync() error { return nil }

func (l *recordingLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastLevel, l.lastLimit, l.lastOffset = level, limit, offset
	return l.stored, nil
}

func (l *recordingLogger) GetLogById(id string) (*logger.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.stored {
		if l.stored[i].Id == id {
			return &l.stored[i], nil
		}
	}
	return nil, fmt.Errorf("log %s not found", id)
}

// capturingPublisher records every payload pushed onto the job topic.
type capturingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *capturingPublisher) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, len(payload))
	copy(buf, payload)
	p.payloads = append(p.payloads, buf)
	return nil
}

func (p *capturingPublisher) events(t *testing.T) []dto.JobEventMessage {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]dto.JobEventMessage, 0, len(p.payloads))
	for _, raw := range p.payloads {
		var evt dto.JobEventMessage
		if err := json.Unmarshal(raw, &evt); err != nil {
			t.Fatalf("job event does not decode: %v", err)
		}
		out = append(out, evt)
	}
	return out
}

// waitLastEvent polls until the newest published event matches eventType for
// the given job. Terminal snapshots become visible slightly before the
// finished event hits the topic, so assertions on events must wait.
func waitLastEvent(t *testing.T, pub *capturingPublisher, jobId, eventType string) dto.JobEventMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		events := pub.events(t)
		if n := len(events); n > 0 {
			last := events[n-1]
			if last.JobId == jobId && last.Event == eventType {
				return last
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("event %s for job %s never published", eventType, jobId)
	return dto.JobEventMessage{}
}

// ============================================================================
// In-memory repositories behind a fake unit of work
// ============================================================================

type fakePaperRepo struct {
	papers map[string]*entity.Paper

	years       [2]int
	ratings     [2]float64
	decisions   []string
	venues      []string
	boundsCalls int
}

func (r *fakePaperRepo) Create(_ context.Context, paper *entity.Paper) error {
	r.papers[paper.Id] = paper
	return nil
}

func (r *fakePaperRepo) CreateBulk(_ context.Context, papers []*entity.Paper) error {
	for _, p := range papers {
		r.papers[p.Id] = p
	}
	return nil
}

func (r *fakePaperRepo) FindById(_ context.Context, id string) (*entity.Paper, error) {
	return r.papers[id], nil
}

func (r *fakePaperRepo) FindByIds(_ context.Context, ids []string) ([]*entity.Paper, error) {
	out := make([]*entity.Paper, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.papers[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaperRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Paper, error) {
	out := make([]*entity.Paper, 0, len(r.papers))
	for _, p := range r.papers {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePaperRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.papers)), nil
}

func (r *fakePaperRepo) DistinctDecisions(_ context.Context) ([]string, error) {
	r.boundsCalls++
	return r.decisions, nil
}

func (r *fakePaperRepo) DistinctVenues(_ context.Context) ([]string, error) {
	r.boundsCalls++
	return r.venues, nil
}

func (r *fakePaperRepo) YearBounds(_ context.Context) (int, int, error) {
	r.boundsCalls++
	return r.years[0], r.years[1], nil
}

func (r *fakePaperRepo) RatingBounds(_ context.Context) (float64, float64, error) {
	r.boundsCalls++
	return r.ratings[0], r.ratings[1], nil
}

type fakeChunkRepo struct {
	byPaper map[string][]*entity.PaperChunk

	searchHits []*contract.ScoredPaperChunk
	searchErr  error
	lastQuery  string
	lastLimit  int
}

func (r *fakeChunkRepo) CreateBulk(_ context.Context, chunks []*entity.PaperChunk) error {
	for _, c := range chunks {
		r.byPaper[c.PaperId] = append(r.byPaper[c.PaperId], c)
	}
	return nil
}

func (r *fakeChunkRepo) FindByPaperId(_ context.Context, paperId string) ([]*entity.PaperChunk, error) {
	return r.byPaper[paperId], nil
}

func (r *fakeChunkRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	var n int64
	for _, chunks := range r.byPaper {
		n += int64(len(chunks))
	}
	return n, nil
}

func (r *fakeChunkRepo) SearchSimilarWithScore(_ context.Context, _ []float32, limit int, _ []specification.Specification) ([]*contract.ScoredPaperChunk, error) {
	r.lastLimit = limit
	return r.searchHits, r.searchErr
}

func (r *fakeChunkRepo) SearchLexical(_ context.Context, query string, limit int, _ []specification.Specification) ([]*contract.ScoredPaperChunk, error) {
	r.lastQuery, r.lastLimit = query, limit
	return r.searchHits, r.searchErr
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	byCid         map[string]*entity.Conversation
	lastListLimit int
}

func (r *fakeConversationRepo) Save(_ context.Context, c *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *c
	r.byCid[c.Cid] = &stored
	return nil
}

func (r *fakeConversationRepo) FindByCid(_ context.Context, cid string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byCid[cid], nil
}

func (r *fakeConversationRepo) List(_ context.Context, limit int) ([]*entity.ConversationMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastListLimit = limit
	metas := make([]*entity.ConversationMeta, 0, len(r.byCid))
	for _, c := range r.byCid {
		metas = append(metas, &entity.ConversationMeta{Cid: c.Cid, Title: c.Title})
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Cid > metas[j].Cid })
	if limit > 0 && len(metas) > limit {
		metas = metas[:limit]
	}
	return metas, nil
}

func (r *fakeConversationRepo) Rename(_ context.Context, cid, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byCid[cid]; ok {
		c.Title = title
	}
	return nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, cid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byCid, cid)
	return nil
}

func (r *fakeConversationRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byCid)), nil
}

type fakeUnitOfWork struct {
	papers        *fakePaperRepo
	chunks        *fakeChunkRepo
	conversations *fakeConversationRepo

	begun      int
	committed  int
	rolledBack int
}

func (u *fakeUnitOfWork) Begin(context.Context) error { u.begun++; return nil }
func (u *fakeUnitOfWork) Commit() error               { u.committed++; return nil }
func (u *fakeUnitOfWork) Rollback() error             { u.rolledBack++; return nil }

func (u *fakeUnitOfWork) PaperRepository() contract.PaperRepository {
	return u.papers
}

func (u *fakeUnitOfWork) PaperChunkRepository() contract.PaperChunkRepository {
	return u.chunks
}

func (u *fakeUnitOfWork) ConversationRepository() contract.ConversationRepository {
	return u.conversations
}

type fakeUowFactory struct {
	uow *fakeUnitOfWork
}

func newFakeUowFactory() *fakeUowFactory {
	return &fakeUowFactory{uow: &fakeUnitOfWork{
		papers:        &fakePaperRepo{papers: map[string]*entity.Paper{}},
		chunks:        &fakeChunkRepo{byPaper: map[string][]*entity.PaperChunk{}},
		conversations: &fakeConversationRepo{byCid: map[string]*entity.Conversation{}},
	}}
}

func (f *fakeUowFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// ============================================================================
// Model endpoint and provider fakes
// ============================================================================

// modelServer fakes an OpenAI-compatible chat completions endpoint. The
// script picks status and content from the latest user message.
func modelServer(t *testing.T, script func(prompt string) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []llm.Message `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		status, content := script(req.Messages[len(req.Messages)-1].Content)
		if status != http.StatusOK {
			http.Error(w, "scripted failure", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// scriptedProvider drives the worker paths that take an llm.LLMProvider
// directly, without a network round trip.
type scriptedProvider struct {
	response string
	err      error
	panics   bool
}

func (p *scriptedProvider) Chat(ctx context.Context, _ []llm.Message, options ...llm.Option) (string, error) {
	return p.Generate(ctx, "", options...)
}

func (p *scriptedProvider) Generate(context.Context, string, ...llm.Option) (string, error) {
	if p.panics {
		panic("scripted provider blew up")
	}
	return p.response, p.err
}

// ============================================================================
// Service construction
// ============================================================================

func testAI(baseURL string) config.AIConfig {
	return config.AIConfig{
		LLMProvider: "openai",
		LLMModel:    "scripted-model",
		LLMAPIKey:   "test-key",
		LLMBaseURL:  baseURL,
	}
}

func testPipeline() config.PipelineConfig {
	return config.PipelineConfig{
		MaxClaims:    16,
		Classifier:   "lexical",
		JobRetention: time.Hour,
		JobTopic:     "JOB_EVENTS_TEST",
	}
}

func newTestJobService(factory *fakeUowFactory, pub IPublisherService, ai config.AIConfig) *jobService {
	svc := NewJobService(
		memory.NewJobRepository(time.Hour),
		factory,
		nil,
		pub,
		NewHistoryService(factory),
		NewCorpusService(factory, nil),
		ai,
		testPipeline(),
		&recordingLogger{},
		log.New(io.Discard, "", 0),
	)
	return svc.(*jobService)
}

// waitJob polls the snapshot until cond holds or the deadline passes.
func waitJob(t *testing.T, svc IJobService, jobId string, cond func(*entity.Job) bool) *entity.Job {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetStatus(context.Background(), jobId)
		if err != nil {
			t.Fatalf("GetStatus: %v", err)
		}
		if job == nil {
			t.Fatalf("job %s vanished while waiting", jobId)
		}
		if cond(job) {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach the expected state", jobId)
	return nil
}

func waitTerminal(t *testing.T, svc IJobService, jobId string) *entity.Job {
	t.Helper()
	return waitJob(t, svc, jobId, func(j *entity.Job) bool { return j.Status.Terminal() })
}

// seedBackTranslationCorpus puts one fully chunked paper into the fake corpus
// and scripts the chunk search to hit its content chunk.
func seedBackTranslationCorpus(factory *fakeUowFactory) {
	paper := &entity.Paper{
		Id:       "paper-backtrans",
		Title:    "Back-Translation at Scale",
		Authors:  []string{"Rivera", "Chen"},
		Venue:    "ACL",
		Year:     2023,
		Rating:   7.5,
		Decision: "Accept",
		Abstract: "Studies back-translation for low-resource machine translation.",
	}
	content := &entity.PaperChunk{
		Id:      "paper-backtrans-content-0",
		PaperId: paper.Id,
		Kind:    entity.ChunkKindContent,
		Text:    "Back-translation improves translation quality in low-resource settings by augmenting the parallel data with synthetic source sentences.",
	}
	review := &entity.PaperChunk{
		Id:      "paper-backtrans-review-0",
		PaperId: paper.Id,
		Kind:    entity.ChunkKindReview,
		Text:    "The evaluation convincingly covers three distinct language pairs.",
	}
	factory.uow.papers.papers[paper.Id] = paper
	factory.uow.chunks.byPaper[paper.Id] = []*entity.PaperChunk{content, review}
	factory.uow.chunks.searchHits = []*contract.ScoredPaperChunk{
		{Chunk: content, Similarity: 0.91},
	}
}
