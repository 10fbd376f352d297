package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/google/uuid"

	"ai-research-be/internal/config"
	"ai-research-be/internal/constant"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/entity"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/memory"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/pkg/agent"
	"ai-research-be/pkg/agent/executor"
	"ai-research-be/pkg/agent/planner"
	"ai-research-be/pkg/agent/verifier"
	"ai-research-be/pkg/embedding"
	embeddingfactory "ai-research-be/pkg/embedding/factory"
	"ai-research-be/pkg/llm"
	llmfactory "ai-research-be/pkg/llm/factory"
	"ai-research-be/pkg/retrieval"
	"ai-research-be/pkg/utils"
)

type IJobService interface {
	SubmitPlan(ctx context.Context, req *dto.PlanJobRequest) (*dto.JobAcceptedResponse, error)
	SubmitResearch(ctx context.Context, req *dto.ResearchJobRequest) (*dto.JobAcceptedResponse, error)
	GetStatus(ctx context.Context, jobId string) (*entity.Job, error)
	ListJobs(ctx context.Context) ([]*entity.Job, error)
	Cancel(ctx context.Context, jobId string) (*entity.Job, error)
	Delete(ctx context.Context, jobId string) error
}

// jobService owns the job arena and the per-job worker goroutines. Each job is
// mutated by exactly one goroutine; every other party reads atomic snapshots.
type jobService struct {
	jobs             *memory.JobRepository
	uowFactory       unitofwork.RepositoryFactory
	retrievalCache   *retrieval.ResultCache
	publisherService IPublisherService
	historyService   IHistoryService
	corpusService    ICorpusService
	ai               config.AIConfig
	pipeline         config.PipelineConfig
	logger           logger.ILogger
	agentLog         *log.Logger
}

func NewJobService(
	jobs *memory.JobRepository,
	uowFactory unitofwork.RepositoryFactory,
	retrievalCache *retrieval.ResultCache,
	publisherService IPublisherService,
	historyService IHistoryService,
	corpusService ICorpusService,
	aiCfg config.AIConfig,
	pipelineCfg config.PipelineConfig,
	appLogger logger.ILogger,
	agentLog *log.Logger,
) IJobService {
	if agentLog == nil {
		agentLog = log.Default()
	}
	return &jobService{
		jobs:             jobs,
		uowFactory:       uowFactory,
		retrievalCache:   retrievalCache,
		publisherService: publisherService,
		historyService:   historyService,
		corpusService:    corpusService,
		ai:               aiCfg,
		pipeline:         pipelineCfg,
		logger:           appLogger,
		agentLog:         agentLog,
	}
}

func (c *jobService) SubmitPlan(ctx context.Context, req *dto.PlanJobRequest) (*dto.JobAcceptedResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, agent.NewValidationError("query", "query must not be empty")
	}

	provider, err := c.llmProviderFor(req.Provider, req.Model, req.ApiKey, req.BaseURL)
	if err != nil {
		return nil, err
	}

	stats := req.Stats
	if stats == nil && c.corpusService != nil {
		if fetched, statsErr := c.corpusService.Stats(ctx); statsErr == nil {
			stats = fetched
		} else {
			c.logger.Warn("JobService", "Corpus stats unavailable, planning without hints", map[string]interface{}{"error": statsErr.Error()})
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	job := c.newJob(entity.JobTypePlan, req.Query)
	handle := c.enqueue(job, cancel, req.NotifyEmail)

	go c.runPlan(runCtx, handle, job, provider, req.Query, stats, req.NotifyEmail)

	return &dto.JobAcceptedResponse{JobId: job.JobId}, nil
}

func (c *jobService) SubmitResearch(ctx context.Context, req *dto.ResearchJobRequest) (*dto.JobAcceptedResponse, error) {
	if req.Plan == nil {
		return nil, agent.NewValidationError("plan", "plan is required")
	}
	if err := req.Plan.Validate(); err != nil {
		return nil, agent.NewValidationError("plan", err.Error())
	}

	provider, err := c.llmProviderFor(req.Provider, req.Model, req.ApiKey, req.BaseURL)
	if err != nil {
		return nil, err
	}
	embedder, err := c.embeddingProviderFor(req.EmbeddingProvider, req.EmbeddingModel, req.EmbeddingApiKey, req.EmbeddingBaseURL)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	job := c.newJob(entity.JobTypeResearch, req.Plan.Title)
	handle := c.enqueue(job, cancel, req.NotifyEmail)

	go c.runResearch(runCtx, handle, job, provider, embedder, req.Plan, req.NotifyEmail)

	return &dto.JobAcceptedResponse{JobId: job.JobId}, nil
}

// GetStatus returns the latest snapshot, or nil when the job id is unknown or
// already evicted.
func (c *jobService) GetStatus(ctx context.Context, jobId string) (*entity.Job, error) {
	handle, found := c.jobs.Get(jobId)
	if !found {
		return nil, nil
	}
	return handle.Snapshot(), nil
}

// ListJobs returns snapshots of every live job, newest first.
func (c *jobService) ListJobs(ctx context.Context) ([]*entity.Job, error) {
	handles := c.jobs.All()
	snapshots := make([]*entity.Job, 0, len(handles))
	for _, h := range handles {
		snapshots = append(snapshots, h.Snapshot())
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].StartedTs > snapshots[j].StartedTs
	})
	return snapshots, nil
}

// Cancel fires the job's cancellation token and returns the current snapshot.
// The worker goroutine observes the token at its next yield point, so the
// returned snapshot usually still shows the job running. Cancelling a
// terminal job is a no-op.
func (c *jobService) Cancel(ctx context.Context, jobId string) (*entity.Job, error) {
	handle, found := c.jobs.Get(jobId)
	if !found {
		return nil, nil
	}
	snapshot := handle.Snapshot()
	if snapshot.Status.Terminal() {
		return snapshot, nil
	}
	handle.Cancel()
	c.logger.Info("JobService", "Cancellation requested", map[string]interface{}{"job_id": jobId})
	return handle.Snapshot(), nil
}

// Delete cancels the job if still active and removes it from the arena.
// Unknown ids are ignored so the operation stays idempotent.
func (c *jobService) Delete(ctx context.Context, jobId string) error {
	handle, found := c.jobs.Get(jobId)
	if !found {
		return nil
	}
	handle.Cancel()
	c.jobs.Delete(jobId)
	c.logger.Info("JobService", "Job removed", map[string]interface{}{"job_id": jobId})
	return nil
}

func (c *jobService) newJob(jobType entity.JobType, title string) *entity.Job {
	return &entity.Job{
		JobId:     uuid.New().String(),
		Type:      jobType,
		Title:     utils.TruncateRunes(strings.TrimSpace(title), 80),
		Status:    entity.JobStatusQueued,
		Message:   "Queued",
		Progress:  make(map[entity.JobStage]entity.StageProgress),
		StartedTs: utils.NowUnix(),
	}
}

// enqueue registers the job in the arena and announces it. The run context is
// detached from the submitting request so the job survives the HTTP cycle;
// cancellation comes only through the handle.
func (c *jobService) enqueue(job *entity.Job, cancel context.CancelFunc, notifyEmail string) *memory.JobHandle {
	handle := memory.NewJobHandle(job, cancel)
	c.jobs.Save(job.JobId, handle)
	c.publishEvent(constant.EventJobQueued, job.Clone(), notifyEmail)
	c.logger.Info("JobService", "Job queued", map[string]interface{}{"job_id": job.JobId, "type": string(job.Type)})
	return handle
}

func (c *jobService) llmProviderFor(providerType, model, apiKey, baseURL string) (llm.LLMProvider, error) {
	if providerType == "" {
		providerType = c.ai.LLMProvider
	}
	if model == "" {
		model = c.ai.LLMModel
	}
	if apiKey == "" {
		apiKey = c.ai.LLMAPIKey
	}
	if baseURL == "" {
		baseURL = c.ai.LLMBaseURL
	}
	provider, err := llmfactory.NewLLMProvider(providerType, model, apiKey, baseURL)
	if err != nil {
		return nil, agent.NewValidationError("provider", err.Error())
	}
	return provider, nil
}

// embeddingProviderFor resolves the retrieval embedder. Returns nil when
// neither the request nor the environment configures one; the searcher then
// falls back to keyword matching.
func (c *jobService) embeddingProviderFor(providerType, model, apiKey, baseURL string) (embedding.EmbeddingProvider, error) {
	if providerType == "" {
		providerType = c.ai.EmbeddingProvider
	}
	if providerType == "" {
		return nil, nil
	}
	if model == "" {
		model = c.ai.EmbeddingModel
	}
	if apiKey == "" {
		apiKey = c.ai.EmbeddingAPIKey
	}
	if baseURL == "" {
		baseURL = c.ai.EmbeddingBaseURL
	}
	provider, err := embeddingfactory.NewEmbeddingProvider(providerType, model, apiKey, baseURL)
	if err != nil {
		return nil, agent.NewValidationError("embedding_provider", err.Error())
	}
	return provider, nil
}

// ============================================================================
// Worker goroutines
// ============================================================================

func (c *jobService) runPlan(ctx context.Context, handle *memory.JobHandle, job *entity.Job, provider llm.LLMProvider, query string, stats *entity.CorpusStats, notifyEmail string) {
	defer c.recoverJob(handle, job, notifyEmail)

	if ctx.Err() != nil {
		c.finishJob(handle, job, entity.JobStatusCancelled, "Cancelled before start", notifyEmail)
		return
	}

	job.Status = entity.JobStatusRunning
	job.Stage = entity.JobStagePlan
	job.Message = "Planning the research outline"
	c.publishProgress(handle, job, notifyEmail)

	plan, err := planner.NewPlanner(provider, c.agentLog).BuildPlan(ctx, query, stats)
	if err != nil {
		c.failJob(handle, job, err, notifyEmail)
		return
	}

	job.Progress[entity.JobStagePlan] = entity.StageProgress{Current: 1, Total: 1, UpdatedTs: utils.NowUnix()}
	job.Result = &entity.PlanResult{Plan: plan}
	c.finishJob(handle, job, entity.JobStatusDone, fmt.Sprintf("Plan ready: %d sections", len(plan.Sections)), notifyEmail)
}

func (c *jobService) runResearch(ctx context.Context, handle *memory.JobHandle, job *entity.Job, provider llm.LLMProvider, embedder embedding.EmbeddingProvider, plan *entity.Plan, notifyEmail string) {
	defer c.recoverJob(handle, job, notifyEmail)

	if ctx.Err() != nil {
		c.finishJob(handle, job, entity.JobStatusCancelled, "Cancelled before start", notifyEmail)
		return
	}

	// The plan stage of a research job re-validates and normalizes the
	// submitted plan; the client may have edited it after planning.
	job.Status = entity.JobStatusRunning
	job.Stage = entity.JobStagePlan
	job.Message = "Validating the submitted plan"
	c.publishProgress(handle, job, notifyEmail)

	if err := plan.Validate(); err != nil {
		c.failJob(handle, job, agent.NewValidationError("plan", err.Error()), notifyEmail)
		return
	}
	plan.Normalize()
	job.Progress[entity.JobStagePlan] = entity.StageProgress{Current: 1, Total: 1, UpdatedTs: utils.NowUnix()}
	c.publishProgress(handle, job, notifyEmail)

	pipe := c.newPipeline(provider, embedder)
	reporter := &jobReporter{svc: c, handle: handle, job: job, notifyEmail: notifyEmail}

	result, err := pipe.Execute(ctx, plan, reporter)
	if result != nil && result.Research != nil {
		job.Result = result.Research
	}
	if err != nil {
		c.failJob(handle, job, err, notifyEmail)
		return
	}

	message := "Research complete"
	if len(result.Degraded) > 0 {
		message = fmt.Sprintf("Research complete; no evidence retrieved for: %s", strings.Join(result.Degraded, ", "))
	}
	if cid := c.archive(plan, result.Research); cid != "" {
		job.HistoryCid = cid
		message += fmt.Sprintf(" (saved to history as %s)", cid)
	}
	c.finishJob(handle, job, entity.JobStatusDone, message, notifyEmail)
}

func (c *jobService) newPipeline(provider llm.LLMProvider, embedder embedding.EmbeddingProvider) *executor.ResearchPipeline {
	searcher := retrieval.NewVectorSearcher(c.uowFactory, embedder, c.retrievalCache, c.agentLog)
	return executor.NewResearchPipeline(provider, searcher, c.newClassifier(provider), c.pipeline.MaxClaims, c.agentLog)
}

func (c *jobService) newClassifier(provider llm.LLMProvider) verifier.Classifier {
	if c.pipeline.Classifier == "lexical" {
		return verifier.NewLexicalClassifier()
	}
	return verifier.NewLLMClassifier(provider, c.agentLog)
}

// archive stores a finished research run in the history store. Failures are
// logged and swallowed; the report already exists and must stay visible.
func (c *jobService) archive(plan *entity.Plan, result *entity.ResearchResult) string {
	if c.historyService == nil || result == nil {
		return ""
	}
	cid, err := c.historyService.Archive(context.Background(), plan.Title, result)
	if err != nil {
		c.logger.Warn("JobService", "Failed to archive research result", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return cid
}

// ============================================================================
// Terminal transitions (worker goroutine only)
// ============================================================================

func (c *jobService) failJob(handle *memory.JobHandle, job *entity.Job, err error, notifyEmail string) {
	if agent.IsCancelled(err) {
		c.finishJob(handle, job, entity.JobStatusCancelled, fmt.Sprintf("Cancelled during the %s stage", job.Stage), notifyEmail)
		return
	}

	job.Error = err.Error()
	job.ErrorTrace = errorTrace(err)
	c.finishJob(handle, job, entity.JobStatusError, fmt.Sprintf("Failed during the %s stage", job.Stage), notifyEmail)
	c.logger.Error("JobService", "Job failed", map[string]interface{}{"job_id": job.JobId, "stage": string(job.Stage), "error": err.Error()})
}

func (c *jobService) finishJob(handle *memory.JobHandle, job *entity.Job, status entity.JobStatus, message string, notifyEmail string) {
	job.Status = status
	job.Message = message
	job.FinishedTs = utils.NowUnix()
	handle.Publish(job)
	c.jobs.StartRetention(job.JobId)
	c.publishEvent(constant.EventJobFinished, job.Clone(), notifyEmail)
	c.logger.Info("JobService", "Job finished", map[string]interface{}{"job_id": job.JobId, "status": string(status)})
}

// recoverJob converts a worker panic into a terminal error state so one bad
// stage cannot take the process down.
func (c *jobService) recoverJob(handle *memory.JobHandle, job *entity.Job, notifyEmail string) {
	r := recover()
	if r == nil {
		return
	}
	job.Error = fmt.Sprintf("panic: %v", r)
	job.ErrorTrace = string(debug.Stack())
	c.finishJob(handle, job, entity.JobStatusError, fmt.Sprintf("Failed during the %s stage", job.Stage), notifyEmail)
	c.logger.Error("JobService", "Job panicked", map[string]interface{}{"job_id": job.JobId, "panic": fmt.Sprintf("%v", r)})
}

// ============================================================================
// Progress and events
// ============================================================================

// publishProgress makes the worker's current job state visible and emits a
// progress event.
func (c *jobService) publishProgress(handle *memory.JobHandle, job *entity.Job, notifyEmail string) {
	handle.Publish(job)
	c.publishEvent(constant.EventJobProgress, job.Clone(), notifyEmail)
}

// publishEvent pushes a lifecycle event onto the job topic. Event delivery is
// auxiliary; failures never affect the job itself.
func (c *jobService) publishEvent(event string, snapshot *entity.Job, notifyEmail string) {
	if c.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.JobEventMessage{
		Event:       event,
		JobId:       snapshot.JobId,
		Snapshot:    snapshot,
		NotifyEmail: notifyEmail,
		OccurredTs:  utils.NowUnix(),
	})
	if err != nil {
		c.logger.Warn("JobService", "Failed to marshal job event", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := c.publisherService.Publish(context.Background(), payload); err != nil {
		c.logger.Warn("JobService", "Failed to publish job event", map[string]interface{}{"event": event, "error": err.Error()})
	}
}

// errorTrace renders the full cause chain, one frame per line.
func errorTrace(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		if b.Len() > 0 {
			b.WriteString("\n  caused by: ")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// jobReporter feeds pipeline callbacks back into the job record. It runs on
// the worker goroutine, so writes here stay within the single-writer rule.
type jobReporter struct {
	svc         *jobService
	handle      *memory.JobHandle
	job         *entity.Job
	notifyEmail string
}

var _ executor.Reporter = &jobReporter{}

func (r *jobReporter) StageStarted(stage entity.JobStage, message string) {
	r.job.Stage = stage
	r.job.Message = message
	r.svc.publishProgress(r.handle, r.job, r.notifyEmail)
}

func (r *jobReporter) UnitDone(stage entity.JobStage, current, total int) {
	r.job.Progress[stage] = entity.StageProgress{Current: current, Total: total, UpdatedTs: utils.NowUnix()}
	r.svc.publishProgress(r.handle, r.job, r.notifyEmail)
}
