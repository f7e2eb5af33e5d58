package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"election/contexts/election/election-ledger/domain/entities"
	domainerrors "election/contexts/election/election-ledger/domain/errors"
	"election/contexts/election/election-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	// stateRowID is the primary key of the singleton election_state row.
	stateRowID = 1
)

// ErrLedgerNotInitialized is returned when the election_state row is missing,
// i.e. Migrate has not run against the database.
var ErrLedgerNotInitialized = errors.New("election ledger state is not initialized")

// Repository stores the ledger in PostgreSQL. Mutations issued through
// Atomically share one transaction that holds a row lock on election_state,
// which serializes writers across processes.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the ledger tables and the state row. baselineSession only
// applies when the state row is created.
func (r *Repository) Migrate(ctx context.Context, baselineSession int64) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&stateModel{},
		&candidateModel{},
		&voterModel{},
		&eventModel{},
		&idempotencyModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("election_repo_migrate_failed", err)
	}
	row := stateModel{ID: stateRowID}
	if err := r.db.WithContext(ctx).
		Where("id = ?", stateRowID).
		Attrs(stateModel{SessionID: baselineSession, UpdatedAt: time.Now().UTC()}).
		FirstOrCreate(&row).Error; err != nil {
		return r.logError("election_repo_init_state_failed", err,
			"baseline_session", baselineSession,
		)
	}
	return nil
}

func (r *Repository) Atomically(ctx context.Context, fn func(ctx context.Context, state ports.LedgerState) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockState(tx); err != nil {
			if errors.Is(err, ErrLedgerNotInitialized) {
				return err
			}
			return r.logError("election_repo_lock_state_failed", err)
		}
		return fn(ctx, &Repository{db: tx, logger: r.logger})
	})
}

func lockState(tx *gorm.DB) (stateModel, error) {
	var row stateModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", stateRowID).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return stateModel{}, ErrLedgerNotInitialized
		}
		return stateModel{}, err
	}
	return row, nil
}

func (r *Repository) loadState(ctx context.Context) (stateModel, error) {
	var row stateModel
	if err := r.db.WithContext(ctx).
		Where("id = ?", stateRowID).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return stateModel{}, ErrLedgerNotInitialized
		}
		return stateModel{}, r.logError("election_repo_load_state_failed", err)
	}
	return row, nil
}

func (r *Repository) CreateCandidate(ctx context.Context, name string, createdAt time.Time) (int64, error) {
	var candidateID int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := lockState(tx)
		if err != nil {
			return err
		}
		if state.CandidatesCount == math.MaxInt64 {
			return domainerrors.ErrStorageExhausted
		}
		candidateID = state.CandidatesCount + 1
		row := candidateModel{
			ID:        candidateID,
			Name:      strings.TrimSpace(name),
			VoteCount: 0,
			Active:    true,
			CreatedAt: createdAt.UTC(),
			UpdatedAt: createdAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&stateModel{}).
			Where("id = ?", stateRowID).
			Updates(map[string]any{
				"candidates_count": candidateID,
				"updated_at":       createdAt.UTC(),
			}).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrStorageExhausted) || errors.Is(err, ErrLedgerNotInitialized) {
			return 0, err
		}
		return 0, r.logError("election_repo_create_candidate_failed", err, "name", strings.TrimSpace(name))
	}
	return candidateID, nil
}

func (r *Repository) GetCandidate(ctx context.Context, candidateID int64) (entities.Candidate, error) {
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("id = ?", candidateID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.logError("election_repo_get_candidate_failed", err,
			"candidate_id", candidateID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) SetCandidateName(ctx context.Context, candidateID int64, name string, updatedAt time.Time) error {
	return r.updateCandidate(ctx, "election_repo_set_candidate_name_failed", candidateID, map[string]any{
		"name":       strings.TrimSpace(name),
		"updated_at": updatedAt.UTC(),
	})
}

func (r *Repository) SoftRemove(ctx context.Context, candidateID int64, updatedAt time.Time) error {
	return r.updateCandidate(ctx, "election_repo_soft_remove_failed", candidateID, map[string]any{
		"active":     false,
		"updated_at": updatedAt.UTC(),
	})
}

func (r *Repository) updateCandidate(ctx context.Context, event string, candidateID int64, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("id = ?", candidateID).
		Updates(updates)
	if result.Error != nil {
		return r.logError(event, result.Error, "candidate_id", candidateID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCandidateNotFound
	}
	return nil
}

func (r *Repository) IncrementVotes(ctx context.Context, candidateID int64, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("id = ?", candidateID).
		Where("vote_count < ?", int64(math.MaxInt64)).
		Updates(map[string]any{
			"vote_count": gorm.Expr("vote_count + 1"),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_increment_votes_failed", result.Error, "candidate_id", candidateID)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.GetCandidate(ctx, candidateID); err != nil {
		return err
	}
	return domainerrors.ErrStorageExhausted
}

func (r *Repository) CountCandidates(ctx context.Context) (int64, error) {
	state, err := r.loadState(ctx)
	if err != nil {
		return 0, err
	}
	return state.CandidatesCount, nil
}

func (r *Repository) ListCandidates(ctx context.Context) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_candidates_failed", err)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) HasVoted(ctx context.Context, address string, sessionID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("address_key = ?", addressKey(address)).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return false, r.logError("election_repo_has_voted_failed", err,
			"address", strings.TrimSpace(address),
			"session_id", sessionID,
		)
	}
	return count > 0, nil
}

// VoterStatus resolves the session and the voted flag in one statement so a
// concurrent StartNewSession cannot split them.
func (r *Repository) VoterStatus(ctx context.Context, address string) (int64, bool, error) {
	var row struct {
		SessionID int64
		Voted     bool
	}
	err := r.db.WithContext(ctx).
		Table(stateModel{}.TableName()+" AS s").
		Select("s.session_id AS session_id, EXISTS (?) AS voted",
			r.db.Table(voterModel{}.TableName()+" AS v").
				Select("1").
				Where("v.address_key = ?", addressKey(address)).
				Where("v.session_id = s.session_id"),
		).
		Where("s.id = ?", stateRowID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, ErrLedgerNotInitialized
		}
		return 0, false, r.logError("election_repo_voter_status_failed", err,
			"address", strings.TrimSpace(address),
		)
	}
	return row.SessionID, row.Voted, nil
}

func (r *Repository) MarkVoted(ctx context.Context, record entities.VoterRecord) error {
	row := voterModel{
		AddressKey:  addressKey(record.Address),
		SessionID:   record.SessionID,
		Address:     strings.TrimSpace(record.Address),
		CandidateID: record.CandidateID,
		VotedAt:     record.VotedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("election_repo_mark_voted_failed", err,
			"address", row.Address,
			"session_id", row.SessionID,
		)
	}
	return nil
}

func (r *Repository) CurrentSession(ctx context.Context) (int64, error) {
	state, err := r.loadState(ctx)
	if err != nil {
		return 0, err
	}
	return state.SessionID, nil
}

func (r *Repository) SetCurrentSession(ctx context.Context, sessionID int64) error {
	result := r.db.WithContext(ctx).
		Model(&stateModel{}).
		Where("id = ?", stateRowID).
		Updates(map[string]any{
			"session_id": sessionID,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_set_session_failed", result.Error, "session_id", sessionID)
	}
	if result.RowsAffected == 0 {
		return ErrLedgerNotInitialized
	}
	return nil
}

func (r *Repository) AppendEvent(ctx context.Context, event entities.LedgerEvent) (entities.LedgerEvent, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := lockState(tx)
		if err != nil {
			return err
		}
		event.Position = state.LastEventPosition + 1
		event.OccurredAt = event.OccurredAt.UTC()
		if strings.TrimSpace(event.EventID) == "" {
			event.EventID = uuid.NewString()
		}
		row := eventModelFromEntity(event)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Model(&stateModel{}).
			Where("id = ?", stateRowID).
			Update("last_event_position", event.Position).Error
	})
	if err != nil {
		if errors.Is(err, ErrLedgerNotInitialized) {
			return entities.LedgerEvent{}, err
		}
		return entities.LedgerEvent{}, r.logError("election_repo_append_event_failed", err,
			"event_kind", string(event.Kind),
		)
	}
	return event, nil
}

func (r *Repository) ListEvents(ctx context.Context, afterPosition int64, limit int) ([]entities.LedgerEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	if afterPosition < 0 {
		afterPosition = 0
	}
	var rows []eventModel
	if err := r.db.WithContext(ctx).
		Where("position > ?", afterPosition).
		Order("position ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_events_failed", err,
			"after", afterPosition,
			"limit", limit,
		)
	}
	items := make([]entities.LedgerEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) LastEventPosition(ctx context.Context) (int64, error) {
	state, err := r.loadState(ctx)
	if err != nil {
		return 0, err
	}
	return state.LastEventPosition, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("election_repo_idempotency_get_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.IsZero() && !row.ExpiresAt.UTC().After(now.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", strings.TrimSpace(key)).
			Delete(&idempotencyModel{}).Error; err != nil {
			return ports.IdempotencyRecord{}, false, r.logError("election_repo_idempotency_expire_delete_failed", err,
				"idempotency_key", strings.TrimSpace(key),
			)
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return row.toRecord(), true, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:           strings.TrimSpace(record.Key),
		RequestHash:   strings.TrimSpace(record.RequestHash),
		Operation:     strings.TrimSpace(record.Operation),
		ResultID:      record.ResultID,
		EventPosition: record.EventPosition,
		ExpiresAt:     record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_idempotency_put_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).Error; err != nil {
		return r.logError("election_repo_idempotency_load_existing_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.ResultID != row.ResultID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("election_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		Sequence:     envelope.Sequence,
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("election_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "election/election-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

func addressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.LedgerRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
