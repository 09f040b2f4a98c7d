package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ticketflo-sync/internal/features/connection"
	"ticketflo-sync/internal/features/contact"
	"ticketflo-sync/internal/features/mapping"
	"ticketflo-sync/internal/hubspot"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// batchSize groups push iterations for bookkeeping; items are still
	// processed one at a time.
	batchSize = 10
	// pageSize is the HubSpot listing page size used by pull
	pageSize = 100
)

type SyncService interface {
	GetContactCount(ctx context.Context, organizationID string) (*CountResult, error)
	PushContacts(ctx context.Context, organizationID string, contactIDs []primitive.ObjectID, opts Options) (*RunResult, error)
	PullContacts(ctx context.Context, organizationID string, opts Options) (*RunResult, error)
	PushSingleContact(ctx context.Context, organizationID string, contactID primitive.ObjectID, opts Options) (*SingleResult, error)
	ListLogs(ctx context.Context, organizationID string, limit int64) ([]SyncLog, error)
	Status(ctx context.Context, organizationID string) (*StatusResult, error)
}

type SyncServiceImpl struct {
	ConnRepo        connection.ConnectionRepository
	Tokens          *connection.TokenManager
	ContactRepo     contact.ContactRepository
	FieldMapRepo    mapping.FieldMappingRepository
	CorrelationRepo mapping.ContactMappingRepository
	Mapper          *mapping.FieldMapper
	Resolver        *ConflictResolver
	LogRepo         SyncLogRepository
	HubSpot         hubspot.API
	Logger          *zap.Logger
}

func NewSyncService(
	connRepo connection.ConnectionRepository,
	tokens *connection.TokenManager,
	contactRepo contact.ContactRepository,
	fieldMapRepo mapping.FieldMappingRepository,
	correlationRepo mapping.ContactMappingRepository,
	mapper *mapping.FieldMapper,
	resolver *ConflictResolver,
	logRepo SyncLogRepository,
	hs hubspot.API,
	logger *zap.Logger,
) SyncService {
	return &SyncServiceImpl{
		ConnRepo:        connRepo,
		Tokens:          tokens,
		ContactRepo:     contactRepo,
		FieldMapRepo:    fieldMapRepo,
		CorrelationRepo: correlationRepo,
		Mapper:          mapper,
		Resolver:        resolver,
		LogRepo:         logRepo,
		HubSpot:         hs,
		Logger:          logger,
	}
}

// runEnv carries everything a run needs after the fatal preconditions
// (connection, token, mapping config) have been established.
type runEnv struct {
	conn        *connection.Connection
	accessToken string
	mappings    []mapping.FieldMapping
	opts        Options
}

// prepare resolves the connection, ensures a valid access token and loads
// the enabled field mappings. Any failure here is fatal for the run.
func (s *SyncServiceImpl) prepare(ctx context.Context, organizationID string, opts Options) (*runEnv, error) {
	conn, err := s.ConnRepo.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.Tokens.EnsureValidToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	mappings, err := s.FieldMapRepo.ListEnabled(ctx, conn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load field mappings: %w", err)
	}
	for i := range mappings {
		if err := mappings[i].Validate(); err != nil {
			return nil, err
		}
	}

	if opts.ConflictResolution == "" {
		opts.ConflictResolution = Policy(conn.SyncSettings.ConflictResolution)
	}
	if !opts.ConflictResolution.Valid() {
		opts.ConflictResolution = DefaultPolicy
	}

	return &runEnv{
		conn:        conn,
		accessToken: accessToken,
		mappings:    mappings,
		opts:        opts,
	}, nil
}

func (s *SyncServiceImpl) GetContactCount(ctx context.Context, organizationID string) (*CountResult, error) {
	env, err := s.prepare(ctx, organizationID, DefaultOptions())
	if err != nil {
		return nil, err
	}

	localCount, err := s.ContactRepo.Count(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}

	remoteCount, err := s.HubSpot.CountContacts(ctx, env.accessToken)
	if err != nil {
		// A count is informational; report zero rather than failing the call
		s.Logger.Warn("failed to count hubspot contacts",
			zap.String("organizationId", organizationID),
			zap.Error(err))
		remoteCount = 0
	}

	return &CountResult{
		TicketFloCount: localCount,
		HubSpotCount:   remoteCount,
	}, nil
}

func (s *SyncServiceImpl) PushContacts(ctx context.Context, organizationID string, contactIDs []primitive.ObjectID, opts Options) (*RunResult, error) {
	env, err := s.prepare(ctx, organizationID, opts)
	if err != nil {
		return nil, err
	}

	contacts, err := s.ContactRepo.List(ctx, organizationID, contactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	if len(contacts) == 0 {
		return &RunResult{}, nil
	}

	log := &SyncLog{
		ConnectionID:  env.conn.ID,
		OperationType: OperationBulkPush,
		Status:        LogStatusInProgress,
	}
	if err := s.LogRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to open sync log: %w", err)
	}

	s.Logger.Info("bulk push started",
		zap.String("organizationId", organizationID),
		zap.String("connectionId", env.conn.ID.Hex()),
		zap.String("operation", string(OperationBulkPush)),
		zap.Int("contacts", len(contacts)))

	result := &RunResult{}
	for start := 0; start < len(contacts); start += batchSize {
		end := start + batchSize
		if end > len(contacts) {
			end = len(contacts)
		}

		for i := start; i < end; i++ {
			c := &contacts[i]
			outcome, err := s.pushOne(ctx, env, c)
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, ItemError{
					ContactID: c.ID.Hex(),
					Email:     c.Email,
					Error:     err.Error(),
				})
				s.Logger.Warn("contact push failed",
					zap.String("connectionId", env.conn.ID.Hex()),
					zap.String("contactId", c.ID.Hex()),
					zap.Error(err))
				continue
			}
			if outcome.Created {
				result.Created++
			} else if outcome.Updated {
				result.Updated++
			}
		}
	}
	result.Processed = len(contacts)

	s.finalizeRun(ctx, env.conn, log, result)
	return result, nil
}

func (s *SyncServiceImpl) PullContacts(ctx context.Context, organizationID string, opts Options) (*RunResult, error) {
	env, err := s.prepare(ctx, organizationID, opts)
	if err != nil {
		return nil, err
	}

	log := &SyncLog{
		ConnectionID:  env.conn.ID,
		OperationType: OperationBulkPull,
		Status:        LogStatusInProgress,
	}
	if err := s.LogRepo.Create(ctx, log); err != nil {
		return nil, fmt.Errorf("failed to open sync log: %w", err)
	}

	s.Logger.Info("bulk pull started",
		zap.String("organizationId", organizationID),
		zap.String("connectionId", env.conn.ID.Hex()),
		zap.String("operation", string(OperationBulkPull)))

	properties := s.Mapper.PullProperties(env.mappings)
	result := &RunResult{}
	after := ""

	for {
		page, err := s.HubSpot.ListContacts(ctx, env.accessToken, pageSize, after, properties)
		if err != nil {
			// A lost page means lost records; the whole pull aborts, but the
			// log is still finalized so the failure is durably visible.
			fatal := fmt.Errorf("failed to fetch hubspot contacts: %w", err)
			s.finalizeFatal(ctx, log, result, fatal)
			return nil, fatal
		}

		for i := range page.Results {
			hs := &page.Results[i]
			outcome, err := s.pullOne(ctx, env, hs)
			result.Processed++
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, ItemError{
					HubSpotContactID: hs.ID,
					Email:            hs.Properties["email"],
					Error:            err.Error(),
				})
				s.Logger.Warn("contact pull failed",
					zap.String("connectionId", env.conn.ID.Hex()),
					zap.String("hubspotContactId", hs.ID),
					zap.Error(err))
				continue
			}
			if outcome.Created {
				result.Created++
			} else if outcome.Updated {
				result.Updated++
			}
		}

		if page.NextAfter == "" {
			break
		}
		after = page.NextAfter
	}

	s.finalizeRun(ctx, env.conn, log, result)
	return result, nil
}

func (s *SyncServiceImpl) PushSingleContact(ctx context.Context, organizationID string, contactID primitive.ObjectID, opts Options) (*SingleResult, error) {
	env, err := s.prepare(ctx, organizationID, opts)
	if err != nil {
		return nil, err
	}

	c, err := s.ContactRepo.Get(ctx, organizationID, contactID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.pushOne(ctx, env, c)
	if err != nil {
		now := time.Now()
		_ = s.LogRepo.Create(ctx, &SyncLog{
			ConnectionID:       env.conn.ID,
			OperationType:      OperationContactPush,
			Status:             LogStatusFailed,
			TicketFloContactID: c.ID.Hex(),
			ErrorMessage:       err.Error(),
			StartedAt:          now,
			CompletedAt:        &now,
		})
		return nil, fmt.Errorf("failed to push contact: %w", err)
	}

	created := 0
	updated := 0
	if outcome.Created {
		created = 1
	}
	if outcome.Updated {
		updated = 1
	}

	now := time.Now()
	_ = s.LogRepo.Create(ctx, &SyncLog{
		ConnectionID:       env.conn.ID,
		OperationType:      OperationContactPush,
		Status:             LogStatusSuccess,
		RecordsProcessed:   1,
		RecordsCreated:     created,
		RecordsUpdated:     updated,
		TicketFloContactID: c.ID.Hex(),
		HubSpotContactID:   outcome.HubSpotContactID,
		StartedAt:          now,
		CompletedAt:        &now,
	})

	return &SingleResult{
		Created:          outcome.Created,
		Updated:          outcome.Updated,
		HubSpotContactID: outcome.HubSpotContactID,
	}, nil
}

func (s *SyncServiceImpl) ListLogs(ctx context.Context, organizationID string, limit int64) ([]SyncLog, error) {
	conn, err := s.ConnRepo.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	return s.LogRepo.List(ctx, conn.ID, limit)
}

func (s *SyncServiceImpl) Status(ctx context.Context, organizationID string) (*StatusResult, error) {
	conn, err := s.ConnRepo.GetByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	status := &StatusResult{
		ConnectionStatus:   string(conn.ConnectionStatus),
		ConflictResolution: conn.SyncSettings.ConflictResolution,
		AutoSync:           conn.SyncSettings.AutoSync,
	}
	if !conn.LastSyncAt.IsZero() {
		t := conn.LastSyncAt
		status.LastSyncAt = &t
	}
	return status, nil
}

// pushOne syncs one local contact to HubSpot. Errors are per-item: the
// caller records them and keeps going.
func (s *SyncServiceImpl) pushOne(ctx context.Context, env *runEnv, c *contact.Contact) (itemOutcome, error) {
	if c.Email == "" {
		return itemOutcome{}, errors.New("contact has no email")
	}

	properties, err := s.Mapper.ToRemote(c, env.mappings)
	if err != nil {
		return itemOutcome{}, err
	}

	existing, err := s.HubSpot.SearchContactByEmail(ctx, env.accessToken, strings.ToLower(c.Email))
	if err != nil {
		return itemOutcome{}, fmt.Errorf("hubspot search failed: %w", err)
	}

	if existing != nil {
		write := env.opts.UpdateExisting &&
			s.Resolver.ShouldWrite(env.opts.ConflictResolution, mapping.DirectionPush, existing.UpdatedAt, c.UpdatedAt)

		if !write {
			// The remote copy stays untouched but the correlation is still
			// recorded so future runs can find the pair.
			if err := s.CorrelationRepo.Upsert(ctx, env.conn.ID, c.ID, existing.ID, mapping.DirectionPush); err != nil {
				return itemOutcome{}, err
			}
			return itemOutcome{HubSpotContactID: existing.ID}, nil
		}

		if _, err := s.HubSpot.UpdateContact(ctx, env.accessToken, existing.ID, properties); err != nil {
			return itemOutcome{}, fmt.Errorf("failed to update hubspot contact: %w", err)
		}
		if err := s.CorrelationRepo.Upsert(ctx, env.conn.ID, c.ID, existing.ID, mapping.DirectionPush); err != nil {
			return itemOutcome{}, err
		}
		if err := s.ContactRepo.SetHubSpotID(ctx, c.ID, existing.ID); err != nil {
			return itemOutcome{}, err
		}
		return itemOutcome{Updated: true, HubSpotContactID: existing.ID}, nil
	}

	if !env.opts.CreateMissing {
		return itemOutcome{}, nil
	}

	created, err := s.HubSpot.CreateContact(ctx, env.accessToken, properties)
	if err != nil {
		return itemOutcome{}, fmt.Errorf("failed to create hubspot contact: %w", err)
	}
	if err := s.CorrelationRepo.Upsert(ctx, env.conn.ID, c.ID, created.ID, mapping.DirectionPush); err != nil {
		return itemOutcome{}, err
	}
	if err := s.ContactRepo.SetHubSpotID(ctx, c.ID, created.ID); err != nil {
		return itemOutcome{}, err
	}
	return itemOutcome{Created: true, HubSpotContactID: created.ID}, nil
}

// pullOne syncs one HubSpot contact into the local store
func (s *SyncServiceImpl) pullOne(ctx context.Context, env *runEnv, hs *hubspot.Contact) (itemOutcome, error) {
	email := hs.Properties["email"]
	if email == "" {
		return itemOutcome{}, errors.New("hubspot contact has no email")
	}

	fields, err := s.Mapper.FromRemote(hs, env.mappings)
	if err != nil {
		return itemOutcome{}, err
	}

	local, err := s.ContactRepo.FindByEmail(ctx, env.conn.OrganizationID, email)
	if err != nil {
		return itemOutcome{}, fmt.Errorf("local contact lookup failed: %w", err)
	}

	if local != nil {
		write := env.opts.UpdateExisting &&
			s.Resolver.ShouldWrite(env.opts.ConflictResolution, mapping.DirectionPull, local.UpdatedAt, hs.UpdatedAt)

		if !write {
			if err := s.CorrelationRepo.Upsert(ctx, env.conn.ID, local.ID, hs.ID, mapping.DirectionPull); err != nil {
				return itemOutcome{}, err
			}
			return itemOutcome{HubSpotContactID: hs.ID}, nil
		}

		fields["hubspot_contact_id"] = hs.ID
		if err := s.ContactRepo.UpdateFields(ctx, local.ID, fields); err != nil {
			return itemOutcome{}, fmt.Errorf("failed to update contact: %w", err)
		}
		if err := s.CorrelationRepo.Upsert(ctx, env.conn.ID, local.ID, hs.ID, mapping.DirectionPull); err != nil {
			return itemOutcome{}, err
		}
		return itemOutcome{Updated: true, HubSpotContactID: hs.ID}, nil
	}

	if !env.opts.CreateMissing {
		return itemOutcome{}, nil
	}

	newContact := buildLocalContact(env.conn.OrganizationID, email, hs, fields)
	if err := s.ContactRepo.Create(ctx, newContact); err != nil {
		return itemOutcome{}, fmt.Errorf("failed to create contact: %w", err)
	}
	if err := s.CorrelationRepo.Upsert(ctx, env.conn.ID, newContact.ID, hs.ID, mapping.DirectionPull); err != nil {
		return itemOutcome{}, err
	}
	return itemOutcome{Created: true, HubSpotContactID: hs.ID}, nil
}

// finalizeRun closes the log for a completed bulk run and advances the
// connection's last-sync marker. A run with failures is still a success
// unless every single item failed.
func (s *SyncServiceImpl) finalizeRun(ctx context.Context, conn *connection.Connection, log *SyncLog, result *RunResult) {
	now := time.Now()
	log.Status = LogStatusSuccess
	if result.Processed > 0 && result.Failed == result.Processed {
		log.Status = LogStatusFailed
	}
	log.RecordsProcessed = result.Processed
	log.RecordsCreated = result.Created
	log.RecordsUpdated = result.Updated
	log.RecordsFailed = result.Failed
	log.ErrorDetails = result.Errors
	log.CompletedAt = &now

	if err := s.LogRepo.Update(ctx, log); err != nil {
		s.Logger.Error("failed to finalize sync log",
			zap.String("connectionId", conn.ID.Hex()),
			zap.Error(err))
	}
	if err := s.ConnRepo.Update(ctx, conn.ID, map[string]interface{}{"last_sync_at": now}); err != nil {
		s.Logger.Error("failed to update last_sync_at",
			zap.String("connectionId", conn.ID.Hex()),
			zap.Error(err))
	}

	s.Logger.Info("sync run finished",
		zap.String("connectionId", conn.ID.Hex()),
		zap.String("operation", string(log.OperationType)),
		zap.String("status", string(log.Status)),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))
}

// finalizeFatal closes the log for a run aborted by a fatal error, keeping
// whatever partial counters accumulated before the abort.
func (s *SyncServiceImpl) finalizeFatal(ctx context.Context, log *SyncLog, result *RunResult, fatal error) {
	now := time.Now()
	log.Status = LogStatusFailed
	log.RecordsProcessed = result.Processed
	log.RecordsCreated = result.Created
	log.RecordsUpdated = result.Updated
	log.RecordsFailed = result.Failed
	log.ErrorDetails = result.Errors
	log.ErrorMessage = fatal.Error()
	log.CompletedAt = &now

	if err := s.LogRepo.Update(ctx, log); err != nil {
		s.Logger.Error("failed to finalize sync log", zap.Error(err))
	}
}

// buildLocalContact assembles a new local contact from a pulled HubSpot
// record: default properties first, then the mapped fields on top.
func buildLocalContact(organizationID, email string, hs *hubspot.Contact, fields map[string]interface{}) *contact.Contact {
	c := &contact.Contact{
		OrganizationID:   organizationID,
		Email:            strings.ToLower(email),
		FirstName:        hs.Properties["firstname"],
		LastName:         hs.Properties["lastname"],
		Phone:            hs.Properties["phone"],
		City:             hs.Properties["city"],
		Country:          hs.Properties["country"],
		Tags:             []string{},
		HubSpotContactID: hs.ID,
	}

	for field, value := range fields {
		applyContactField(c, field, value)
	}
	return c
}

// applyContactField writes a mapped value onto the known contact fields.
// Unknown field names are ignored on create; the update path persists them
// through the document store directly.
func applyContactField(c *contact.Contact, field string, value interface{}) {
	switch field {
	case "first_name":
		if v, ok := value.(string); ok {
			c.FirstName = v
		}
	case "last_name":
		if v, ok := value.(string); ok {
			c.LastName = v
		}
	case "phone":
		if v, ok := value.(string); ok {
			c.Phone = v
		}
	case "city":
		if v, ok := value.(string); ok {
			c.City = v
		}
	case "country":
		if v, ok := value.(string); ok {
			c.Country = v
		}
	case "total_spent":
		if v, ok := value.(float64); ok {
			c.TotalSpent = v
		}
	case "total_orders":
		switch v := value.(type) {
		case float64:
			c.TotalOrders = int(v)
		case int:
			c.TotalOrders = v
		}
	case "lifetime_value":
		if v, ok := value.(float64); ok {
			c.LifetimeValue = v
		}
	case "tags":
		if v, ok := value.([]string); ok {
			c.Tags = v
		}
	}
}
