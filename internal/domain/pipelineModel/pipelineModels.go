package pipelineModel

import (
	"time"

	"github.com/akolanti/DocQA/internal/domain/failures"
)

type Operation string
type Stage string

const (
	OperationIngest Operation = "ingest"
	OperationQuery  Operation = "query"

	Received  Stage = "Received"
	Validated Stage = "Validated"
	Converted Stage = "Converted"
	Extracted Stage = "Extracted"
	Answered  Stage = "Answered"
	Failed    Stage = "Failed"
)

// Run tracks one ingest or query from Received to a terminal stage.
type Run struct {
	Id          string
	TraceId     string
	Operation   Operation
	DocumentId  string
	Stage       Stage
	FailureKind failures.Kind
	StartTime   time.Time
	EndTime     time.Time
}

func NewRun(id string, traceId string, op Operation) Run {
	return Run{
		Id:        id,
		TraceId:   traceId,
		Operation: op,
		Stage:     Received,
		StartTime: time.Now(),
	}
}

// IsTerminal reports whether the run has finished. An ingest finishes once
// text is extracted, a query once it is answered.
func (r Run) IsTerminal() bool {
	switch r.Stage {
	case Failed, Answered:
		return true
	case Extracted:
		return r.Operation == OperationIngest
	default:
		return false
	}
}

func (r Run) Status() string {
	if r.Stage == Failed {
		return "failed"
	}
	return "ok"
}

var transitions = map[Stage][]Stage{
	Received:  {Validated, Failed},
	Validated: {Converted, Extracted, Failed},
	Converted: {Extracted, Failed},
	Extracted: {Answered, Failed},
}

// CanAdvance reports whether next is a legal successor of the current stage.
func (r Run) CanAdvance(next Stage) bool {
	for _, s := range transitions[r.Stage] {
		if s == next {
			return true
		}
	}
	return false
}
