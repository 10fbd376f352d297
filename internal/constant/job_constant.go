package constant

// Job lifecycle event names carried on the watermill topic and mirrored to
// NATS subjects.
const (
	EventJobQueued   = "job.queued"
	EventJobProgress = "job.progress"
	EventJobFinished = "job.finished"
)

// Conversation roles used in archived history snapshots.
const (
	ConversationRoleUser      = "user"
	ConversationRoleAssistant = "assistant"
)
