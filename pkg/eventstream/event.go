package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeAnswerGenerated is emitted after a question is answered.
	EventTypeAnswerGenerated = "mishkat.answer.generated"
)

// AnswerEvent is a transport-neutral event payload for a generated answer.
type AnswerEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Question      string        `json:"question"`
	Filters       FilterMeta    `json:"filters"`
	SourceRefs    []SourceRef   `json:"source_refs"`
	Attempts      []AttemptMeta `json:"attempts"`
	Degraded      bool          `json:"degraded"`
	DurationMs    int64         `json:"duration_ms"`
}

// FilterMeta records the verse filters applied to the retrieval, zero when
// no filter was given.
type FilterMeta struct {
	Surah    int `json:"surah,omitempty"`
	Verse    int `json:"verse,omitempty"`
	EndVerse int `json:"end_verse,omitempty"`
}

// SourceRef identifies one passage the answer is grounded in.
type SourceRef struct {
	Type      string `json:"source_type"`
	Reference string `json:"reference"`
}

// AttemptMeta captures one call attempt against a model strategy.
type AttemptMeta struct {
	Strategy   string `json:"strategy"`
	Credential string `json:"credential,omitempty"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}
