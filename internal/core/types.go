package core

import "refmap/pkg/domain"

type (
	Attributes      = domain.Attributes
	ReferenceEntity = domain.ReferenceEntity
	SourceRecord    = domain.SourceRecord
	Candidate       = domain.Candidate
	Status          = domain.Status
	MappingResult   = domain.MappingResult
	BatchSummary    = domain.BatchSummary
	Event           = domain.Event
	Decision        = domain.Decision
	DecisionKind    = domain.DecisionKind
	Config          = domain.Config
	Logger          = domain.Logger
	MetricsRecorder = domain.MetricsRecorder
	EventEmitter    = domain.EventEmitter
	GlossarySource  = domain.GlossarySource
	ResultSink      = domain.ResultSink
	DedupStore      = domain.DedupStore
)

const (
	StatusMatched           = domain.StatusMatched
	StatusMatchedByFallback = domain.StatusMatchedByFallback
	StatusUnmatched         = domain.StatusUnmatched
	StatusAmbiguous         = domain.StatusAmbiguous
)

const (
	DecisionAccept         = domain.DecisionAccept
	DecisionAcceptFallback = domain.DecisionAcceptFallback
	DecisionReject         = domain.DecisionReject
	DecisionAmbiguous      = domain.DecisionAmbiguous
)
