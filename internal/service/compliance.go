package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bimsight/internal/codec"
	"bimsight/internal/domain"
	"bimsight/internal/engine"
	"bimsight/internal/index"
	"bimsight/internal/loader"
	"bimsight/internal/repository"
)

// DefaultSession is used when a caller does not name a session
const DefaultSession = "default"

// ErrNoRepository is returned by persistence operations when no repository is configured
var ErrNoRepository = errors.New("no sample repository configured")

// Options configures a ComplianceService
type Options struct {
	Params   engine.Params
	Keywords engine.KeywordTable
	Source   loader.Source
	Repo     repository.Repository // optional
	EventBus *EventBus             // optional
	Logger   *zap.Logger           // optional
}

// Evaluation is one evaluated cycle with its session's smoothed view
type Evaluation struct {
	Session        string                   `json:"session"`
	Frame          int64                    `json:"frame"`
	Report         *domain.ComplianceReport `json:"report"`
	SmoothedScore  float64                  `json:"smoothed_score"`
	SmoothedStatus domain.Status            `json:"smoothed_status"`
	Window         int                      `json:"window"`
}

// SessionSummary combines the live window of a session with its stored samples
type SessionSummary struct {
	Session        string             `json:"session"`
	Frames         int64              `json:"frames"`
	Alerts         int64              `json:"alerts"`
	SmoothedScore  float64            `json:"smoothed_score"`
	SmoothedStatus domain.Status      `json:"smoothed_status"`
	Window         engine.WindowStats `json:"window"`
	Stored         *domain.Summary    `json:"stored,omitempty"`
}

// sessionState is the per-session evaluation state, guarded by ComplianceService.mu
type sessionState struct {
	smoother *engine.Smoother
	frames   int64
	alerts   int64
	status   domain.Status
}

// ComplianceService provides business logic for compliance evaluation
type ComplianceService struct {
	params   engine.Params
	keywords engine.KeywordTable
	source   loader.Source
	repo     repository.Repository
	eventBus *EventBus
	logger   *zap.Logger

	evaluator atomic.Pointer[engine.Evaluator]

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// NewComplianceService creates a service with an empty model; call Reload to load the source
func NewComplianceService(opts Options) (*ComplianceService, error) {
	if err := opts.Params.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid engine parameters")
	}
	if opts.Source == nil {
		opts.Source = loader.NewDefaultSource()
	}
	if opts.Keywords == nil {
		opts.Keywords = engine.DefaultKeywords()
	}
	if opts.EventBus == nil {
		opts.EventBus = NewEventBus()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &ComplianceService{
		params:   opts.Params,
		keywords: opts.Keywords,
		source:   opts.Source,
		repo:     opts.Repo,
		eventBus: opts.EventBus,
		logger:   opts.Logger,
		sessions: make(map[string]*sessionState),
	}
	s.evaluator.Store(s.newEvaluator(index.Build(nil)))
	return s, nil
}

func (s *ComplianceService) newEvaluator(idx *index.Index) *engine.Evaluator {
	return engine.NewEvaluator(s.params, idx).WithKeywords(s.keywords)
}

// Params returns the scoring policy in effect
func (s *ComplianceService) Params() engine.Params {
	return s.params
}

// Keywords returns the keyword table in effect
func (s *ComplianceService) Keywords() engine.KeywordTable {
	return s.keywords
}

// EventBus returns the bus the service publishes on
func (s *ComplianceService) EventBus() *EventBus {
	return s.eventBus
}

// Reload loads the model source and swaps in a new index. On failure the previous
// index stays in place.
func (s *ComplianceService) Reload(ctx context.Context) (index.Snapshot, error) {
	records, err := s.source.Load(ctx)
	if err != nil {
		return index.Snapshot{}, errors.Wrapf(err, "failed to load model from %s", s.source.Name())
	}

	idx := index.Build(records)
	s.evaluator.Store(s.newEvaluator(idx))

	snap := idx.Snapshot()
	for _, rec := range idx.Dropped() {
		s.logger.Debug("dropped element without derivable position",
			zap.String("id", rec.ID), zap.String("category", string(rec.Category)))
	}
	s.logger.Info("model loaded",
		zap.String("source", s.source.Name()),
		zap.Int("elements", snap.Total),
		zap.Int("dropped", snap.Dropped))

	s.eventBus.Publish(Event{
		Type: EventModelReloaded,
		Payload: map[string]interface{}{
			"source":   s.source.Name(),
			"elements": snap.Total,
			"dropped":  snap.Dropped,
		},
	})
	return snap, nil
}

// Model returns a snapshot of the current index
func (s *ComplianceService) Model() index.Snapshot {
	return s.evaluator.Load().Index().Snapshot()
}

// ExportModel writes the current index as a model document in the given format
func (s *ComplianceService) ExportModel(format string, w io.Writer) error {
	c, err := codec.ForFormat(format)
	if err != nil {
		return err
	}

	idx := s.evaluator.Load().Index()
	var elems []domain.ReferenceElement
	for _, category := range idx.Categories() {
		elems = append(elems, idx.Elements(category)...)
	}

	doc := codec.DocumentFromElements(codec.ProjectInfo{Name: s.source.Name()}, elems)
	return c.Export(doc, w)
}

// Evaluate scores one batch of detections and pushes the score into the session's window
func (s *ComplianceService) Evaluate(ctx context.Context, session string, detections []domain.Detection) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if session == "" {
		session = DefaultSession
	}
	if detections == nil {
		detections = []domain.Detection{}
	}

	report := s.evaluator.Load().Evaluate(detections)

	s.mu.Lock()
	st := s.session(session)
	st.smoother.Push(report.Score)
	st.frames++
	st.alerts += int64(len(report.Alerts))
	smoothed := st.smoother.Average()
	eval := &Evaluation{
		Session:        session,
		Frame:          st.frames,
		Report:         report,
		SmoothedScore:  smoothed,
		SmoothedStatus: domain.ClassifyScore(smoothed),
		Window:         st.smoother.Len(),
	}
	previous := st.status
	st.status = eval.SmoothedStatus
	s.mu.Unlock()

	s.eventBus.Publish(Event{Type: EventReportEvaluated, Payload: eval})

	if report.HasAlerts() {
		s.eventBus.Publish(Event{
			Type: EventAlertRaised,
			Payload: map[string]interface{}{
				"session": session,
				"frame":   eval.Frame,
				"alerts":  report.Alerts,
			},
		})
	}

	if previous != "" && previous != eval.SmoothedStatus {
		s.logger.Info("compliance status changed",
			zap.String("session", session),
			zap.String("from", string(previous)),
			zap.String("to", string(eval.SmoothedStatus)),
			zap.Float64("smoothed_score", smoothed))
		s.eventBus.Publish(Event{
			Type: EventStatusChanged,
			Payload: map[string]interface{}{
				"session": session,
				"from":    previous,
				"to":      eval.SmoothedStatus,
			},
		})
	}

	return eval, nil
}

// session returns the state for a session, creating it on first use. Caller holds s.mu.
func (s *ComplianceService) session(id string) *sessionState {
	st, ok := s.sessions[id]
	if !ok {
		st = &sessionState{smoother: engine.NewSmoother(s.params.WindowSize)}
		s.sessions[id] = st
	}
	return st
}

// Capture evaluates a batch like Evaluate and stores the cycle as a sample
func (s *ComplianceService) Capture(ctx context.Context, session string, detections []domain.Detection) (*domain.Sample, *Evaluation, error) {
	if s.repo == nil {
		return nil, nil, ErrNoRepository
	}

	eval, err := s.Evaluate(ctx, session, detections)
	if err != nil {
		return nil, nil, err
	}

	sample := domain.NewSample(uuid.New().String(), eval.Session, eval.Report.Detections(), eval.Report)
	if err := s.repo.SaveSample(ctx, sample); err != nil {
		return nil, nil, errors.Wrap(err, "failed to save sample")
	}

	s.logger.Debug("sample captured",
		zap.String("session", sample.SessionID),
		zap.String("id", sample.ID),
		zap.Float64("score", sample.Score))
	s.eventBus.Publish(Event{Type: EventSampleCaptured, Payload: sample})

	return sample, eval, nil
}

// ListSamples returns the stored samples of a session, oldest first
func (s *ComplianceService) ListSamples(ctx context.Context, session string, limit int) ([]*domain.Sample, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListSamples(ctx, session, limit)
}

// ListSessions returns the sessions with stored samples
func (s *ComplianceService) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListSessions(ctx)
}

// Summary reports the live window of a session and, when a repository is configured,
// the statistics of its stored samples
func (s *ComplianceService) Summary(ctx context.Context, session string) (*SessionSummary, error) {
	if session == "" {
		session = DefaultSession
	}

	summary := &SessionSummary{Session: session, SmoothedStatus: domain.ClassifyScore(0)}
	s.mu.Lock()
	if st, ok := s.sessions[session]; ok {
		summary.Frames = st.frames
		summary.Alerts = st.alerts
		summary.SmoothedScore = st.smoother.Average()
		summary.SmoothedStatus = domain.ClassifyScore(summary.SmoothedScore)
		summary.Window = st.smoother.Stats()
	}
	s.mu.Unlock()

	if s.repo != nil {
		stored, err := s.repo.Summary(ctx, session)
		if err != nil {
			return nil, errors.Wrap(err, "failed to summarise samples")
		}
		summary.Stored = stored
	}
	return summary, nil
}

// ResetSession clears the live window of a session and deletes its stored samples.
// It returns the number of samples deleted.
func (s *ComplianceService) ResetSession(ctx context.Context, session string) (int64, error) {
	if session == "" {
		session = DefaultSession
	}

	s.mu.Lock()
	delete(s.sessions, session)
	s.mu.Unlock()

	var deleted int64
	if s.repo != nil {
		n, err := s.repo.DeleteSession(ctx, session)
		if err != nil {
			return 0, errors.Wrap(err, "failed to delete session samples")
		}
		deleted = n
	}

	s.eventBus.Publish(Event{
		Type:    EventSessionReset,
		Payload: map[string]interface{}{"session": session, "deleted": deleted},
	})
	return deleted, nil
}

// Sessions returns the sorted ids of sessions with live state
func (s *ComplianceService) Sessions() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	return ids
}
