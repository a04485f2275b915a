package applications

import (
	"context"
	"errors"
	"time"

	"incubator-portal/internal/applications/store"
	apperrors "incubator-portal/internal/common/errors"
	"incubator-portal/internal/common/logger"
	"incubator-portal/internal/common/metrics"
	"incubator-portal/internal/common/observability"
	"incubator-portal/internal/models"
)

const DefaultStoreTimeout = 5 * time.Second

// Validator checks a submission payload.
type Validator interface {
	Validate(fields models.SubmissionFields) error
}

// Indexer maintains the secondary search index.
type Indexer interface {
	IndexApplication(ctx context.Context, app *models.Application) error
	Search(ctx context.Context, q models.SearchQuery) ([]string, int, error)
}

// EventPublisher forwards lifecycle events to the workflow engine.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LifecycleEvent) error
}

// Revoker invalidates a bearer token until expiresAt (unix seconds, 0 if unknown).
type Revoker interface {
	Revoke(ctx context.Context, token string, expiresAt int64) error
}

// SearchResult is a page of admin search hits hydrated from the record store.
type SearchResult struct {
	Applications []*models.Application `json:"applications"`
	Total        int                   `json:"total"`
}

// Deps wires a Service. Indexer, Publisher, Revoker and Observability are optional.
type Deps struct {
	Store         store.Store
	Gate          *Gate
	Issuer        *Issuer
	Authority     *Authority
	Validator     Validator
	Indexer       Indexer
	Publisher     EventPublisher
	Revoker       Revoker
	Observability *observability.Observability
	StoreTimeout  time.Duration
}

// Service is the operation surface. Every entry point consults the gate before
// touching the store.
type Service struct {
	store        store.Store
	gate         *Gate
	issuer       *Issuer
	authority    *Authority
	validator    Validator
	indexer      Indexer
	publisher    EventPublisher
	revoker      Revoker
	obs          *observability.Observability
	storeTimeout time.Duration
	now          func() time.Time
	logger       logger.Logger
}

func NewService(deps Deps, log logger.Logger) *Service {
	timeout := deps.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Service{
		store:        deps.Store,
		gate:         deps.Gate,
		issuer:       deps.Issuer,
		authority:    deps.Authority,
		validator:    deps.Validator,
		indexer:      deps.Indexer,
		publisher:    deps.Publisher,
		revoker:      deps.Revoker,
		obs:          deps.Observability,
		storeTimeout: timeout,
		now:          time.Now,
		logger:       log.WithFields(map[string]interface{}{"component": "applications"}),
	}
}

// Submit creates a Pending application. It is public.
func (s *Service) Submit(ctx context.Context, fields models.SubmissionFields) (app *models.Application, err error) {
	defer s.observe(ctx, OpSubmit, time.Now(), &err)

	if _, err = s.gate.Admit(ctx, "", OpSubmit); err != nil {
		return nil, err
	}

	if err = s.validator.Validate(fields); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	applicationID, err := s.issuer.Issue(sctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	record := &models.Application{
		ApplicationID:    applicationID,
		ApplicationEmail: fields.ApplicationEmail,
		ApplicationPhone: fields.ApplicationPhone,
		ProgramApplied:   fields.ProgramApplied,
		StartupName:      fields.StartupName,
		Description:      fields.Description,
		Status:           models.StatusPending,
		SubmissionDate:   now,
		UpdatedDateTime:  now,
	}

	app, err = s.store.Insert(sctx, record)
	if err != nil {
		return nil, storeError("insert", applicationID, err)
	}

	s.logger.Info("application submitted", map[string]interface{}{
		"applicationId":  app.ApplicationID,
		"programApplied": app.ProgramApplied,
	})
	s.obs.RecordSubmission(ctx, app.ProgramApplied)

	s.afterWrite(ctx, app, models.LifecycleEvent{
		Type:          models.EventApplicationSubmitted,
		ApplicationID: app.ApplicationID,
		Status:        app.Status,
		OccurredAt:    app.SubmissionDate,
	})

	return app, nil
}

// ListAll returns every application, newest submission first.
func (s *Service) ListAll(ctx context.Context, token string) (apps []*models.Application, err error) {
	defer s.observe(ctx, OpListAll, time.Now(), &err)

	if _, err = s.gate.Admit(ctx, token, OpListAll); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	apps, err = s.store.List(sctx)
	if err != nil {
		return nil, storeError("list", "", err)
	}
	return apps, nil
}

// GetByID returns one application by applicationId or internal id.
func (s *Service) GetByID(ctx context.Context, token, id string) (app *models.Application, err error) {
	defer s.observe(ctx, OpGetByID, time.Now(), &err)

	if _, err = s.gate.Admit(ctx, token, OpGetByID); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	return resolve(sctx, s.store, id)
}

// Admit runs the gate for op ahead of any request decoding. Rejections are
// recorded against op.
func (s *Service) Admit(ctx context.Context, token string, op Operation) (models.Actor, error) {
	actor, err := s.gate.Admit(ctx, token, op)
	if err != nil {
		s.observe(ctx, op, time.Now(), &err)
		return models.Actor{}, err
	}
	return actor, nil
}

// SetStatus transitions an application on behalf of the token's actor.
func (s *Service) SetStatus(ctx context.Context, token, id, status string) (*models.Application, error) {
	actor, err := s.Admit(ctx, token, OpSetStatus)
	if err != nil {
		return nil, err
	}
	return s.SetStatusAs(ctx, actor, id, status)
}

// SetStatusAs transitions an application on behalf of an already authenticated
// actor, such as the workflow worker's service identity.
func (s *Service) SetStatusAs(ctx context.Context, actor models.Actor, id, status string) (app *models.Application, err error) {
	defer s.observe(ctx, OpSetStatus, time.Now(), &err)

	if err = s.gate.Authorize(actor, OpSetStatus); err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	app, previous, err := s.authority.Transition(sctx, id, status, actor.Role)
	if err != nil {
		return nil, err
	}

	s.obs.RecordTransition(ctx, string(previous), string(app.Status))

	s.afterWrite(ctx, app, models.LifecycleEvent{
		Type:           models.EventApplicationStatusChanged,
		ApplicationID:  app.ApplicationID,
		Status:         app.Status,
		PreviousStatus: previous,
		Actor:          actor.Identity,
		OccurredAt:     app.UpdatedDateTime,
	})

	return app, nil
}

// Search runs an admin query against the search index and loads the hits from
// the record store. Hits the store no longer knows are dropped.
func (s *Service) Search(ctx context.Context, token string, q models.SearchQuery) (result *SearchResult, err error) {
	defer s.observe(ctx, OpSearch, time.Now(), &err)

	if _, err = s.gate.Admit(ctx, token, OpSearch); err != nil {
		return nil, err
	}

	if q.Status != "" && !q.Status.Valid() {
		return nil, apperrors.NewInvalidStatusError(string(q.Status))
	}

	if s.indexer == nil {
		return nil, apperrors.NewStoreUnavailableError("search", errSearchDisabled)
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	ids, total, err := s.indexer.Search(sctx, q)
	if err != nil {
		return nil, storeError("search", "", err)
	}

	result = &SearchResult{Applications: make([]*models.Application, 0, len(ids)), Total: total}
	for _, applicationID := range ids {
		app, err := s.store.FindByField(sctx, "applicationId", applicationID)
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("search hit missing from record store", map[string]interface{}{
				"applicationId": applicationID,
			})
			continue
		}
		if err != nil {
			return nil, storeError("search", applicationID, err)
		}
		result.Applications = append(result.Applications, app)
	}
	return result, nil
}

// Logout revokes token so the gate rejects it from now on.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	defer s.observe(ctx, OpLogout, time.Now(), &err)

	actor, claims, err := s.gate.admit(ctx, token, OpLogout)
	if err != nil {
		return err
	}

	if s.revoker == nil {
		return apperrors.NewStoreUnavailableError("logout", errRevocationDisabled)
	}

	if err = s.revoker.Revoke(ctx, token, claims.ExpiresAt); err != nil {
		return err
	}

	s.logger.Info("token revoked", map[string]interface{}{
		"identity": actor.Identity,
		"token":    logger.MaskToken(token),
	})
	return nil
}

// afterWrite updates the search index and notifies the workflow engine. Both are
// derived views; failures are logged and counted but never fail the operation.
func (s *Service) afterWrite(ctx context.Context, app *models.Application, event models.LifecycleEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	if s.indexer != nil {
		if err := s.indexer.IndexApplication(ctx, app); err != nil {
			metrics.SideEffectFailures.WithLabelValues("index").Inc()
			s.logger.WithError(err).Warn("failed to index application", map[string]interface{}{
				"applicationId": app.ApplicationID,
			})
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			metrics.SideEffectFailures.WithLabelValues("publish").Inc()
			s.logger.WithError(err).Warn("failed to publish lifecycle event", map[string]interface{}{
				"applicationId": app.ApplicationID,
				"event":         string(event.Type),
			})
		}
	}
}

func (s *Service) observe(ctx context.Context, op Operation, started time.Time, errp *error) {
	code := ""
	if errp != nil && *errp != nil {
		stdErr := apperrors.AsStandardError(*errp)
		code = string(stdErr.Code)

		log := s.logger.WithError(*errp)
		fields := map[string]interface{}{
			"operation": string(op),
			"code":      code,
		}
		if stdErr.Code == apperrors.ErrCodeInternal || stdErr.Code == apperrors.ErrCodeStoreUnavailable {
			log.Error("operation failed", fields)
		} else {
			log.Debug("operation rejected", fields)
		}
	}

	metrics.ObserveOperation(string(op), code, started)
	if code == "" {
		code = "OK"
	}
	s.obs.RecordOperation(ctx, string(op), time.Since(started), code)
}
