package entity

type JobType string

const (
	JobTypePlan     JobType = "plan"
	JobTypeResearch JobType = "research"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusDone      JobStatus = "done"
	JobStatusError     JobStatus = "error"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal jobs never change again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError || s == JobStatusCancelled
}

type JobStage string

const (
	JobStagePlan     JobStage = "plan"
	JobStageResearch JobStage = "research"
	JobStageWrite    JobStage = "write"
	JobStageVerify   JobStage = "verify"
)

// StageProgress is the per-stage work counter. UpdatedTs is unix seconds.
type StageProgress struct {
	Current   int     `json:"current"`
	Total     int     `json:"total"`
	UpdatedTs float64 `json:"_ts,omitempty"`
}

// Job is the orchestrator's view of one background run. A job is mutated only
// by its owning goroutine; everyone else sees snapshots taken with Clone.
type Job struct {
	JobId      string                     `json:"job_id"`
	Type       JobType                    `json:"type"`
	Title      string                     `json:"title,omitempty"`
	Status     JobStatus                  `json:"status"`
	Stage      JobStage                   `json:"stage"`
	Message    string                     `json:"message"`
	Progress   map[JobStage]StageProgress `json:"progress"`
	Result     any                        `json:"result,omitempty"`
	Error      string                     `json:"error,omitempty"`
	ErrorTrace string                     `json:"error_trace,omitempty"`
	HistoryCid string                     `json:"history_cid,omitempty"`
	StartedTs  float64                    `json:"started_ts"`
	FinishedTs float64                    `json:"finished_ts,omitempty"`
}

// Clone copies the job for readers. The progress map is duplicated; result
// payloads are never mutated after being attached, so they are shared.
func (j *Job) Clone() *Job {
	cp := *j
	cp.Progress = make(map[JobStage]StageProgress, len(j.Progress))
	for stage, p := range j.Progress {
		cp.Progress[stage] = p
	}
	return &cp
}

type PlanResult struct {
	Plan *Plan `json:"plan"`
}

type ResearchResult struct {
	FinalReport        string              `json:"final_report"`
	VerificationResult *VerificationResult `json:"verification_result"`
	ResearchNotes      []SectionNotes      `json:"research_notes"`
	ReportRefCtx       []RefItem           `json:"report_ref_ctx"`
}
