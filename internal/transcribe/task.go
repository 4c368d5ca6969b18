package transcribe

import (
	"time"

	"github.com/google/uuid"
)

// Task is one window of samples queued for transcription.
type Task struct {
	ID       uuid.UUID
	Batch    string
	Sequence int
	Samples  []float32
	Model    string
	Options  Options
	Created  time.Time
	Result   *Result
}

// NewTask creates a task for samples using the default model.
func NewTask(batch string, sequence int, samples []float32) *Task {
	return &Task{
		ID:       uuid.New(),
		Batch:    batch,
		Sequence: sequence,
		Samples:  samples,
		Model:    DefaultModel,
		Created:  time.Now(),
	}
}

// Age returns the time since the task was created.
func (t *Task) Age() time.Duration {
	return time.Since(t.Created)
}
