package merging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	sidracontext "github.com/Khalid-A/sidra/pkg/context"
	"github.com/Khalid-A/sidra/pkg/database"
	"github.com/Khalid-A/sidra/pkg/models"
	"github.com/Khalid-A/sidra/pkg/tracing"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MemberStore is the member-record surface the resolver mutates. All methods
// must honor an open context transaction.
type MemberStore interface {
	Get(ctx context.Context, id string) (*models.Member, error)
	Update(ctx context.Context, member *models.Member) error
	RepointChildren(ctx context.Context, fromFatherID, toFatherID string, generation int) (int, error)
	Delete(ctx context.Context, id string) error
}

type FlagStore interface {
	Get(ctx context.Context, id string) (*models.DuplicateFlag, error)
	// ResolveConditional transitions the flag to the given terminal status
	// only if it is still active, reporting whether this caller won.
	ResolveConditional(ctx context.Context, id string, status models.DuplicateFlagStatus, resolution *models.FlagResolution, resolvedBy string) (bool, error)
	DeleteActiveByMember(ctx context.Context, memberID, excludeFlagID string) (int, error)
}

type HistoryStore interface {
	Create(ctx context.Context, record *models.MemberHistory) error
	Repoint(ctx context.Context, fromMemberID, toMemberID string) (int, error)
}

type PhotoStore interface {
	TransferOwnership(ctx context.Context, fromMemberID, toMemberID string) (int, error)
}

// TxManager begins or joins a context transaction. database.DB satisfies it.
type TxManager interface {
	GetTx(ctx context.Context, opts *sql.TxOptions) (context.Context, database.Tx, error)
}

// Events receives post-commit notifications. Failures are logged, never
// propagated; the merge is already durable by the time these fire.
type Events interface {
	MemberMerged(ctx context.Context, outcome *models.MergeOutcome) error
	FlagResolved(ctx context.Context, flagID string, action models.ResolveAction) error
}

// GraphProjector mirrors a committed merge into the lineage graph.
type GraphProjector interface {
	ProjectMerge(ctx context.Context, keepID, removeID string) error
}

// Resolver executes duplicate-flag resolutions, including the transactional
// member merge.
type Resolver struct {
	db       TxManager
	members  MemberStore
	flags    FlagStore
	history  HistoryStore
	photos   PhotoStore
	merger   *FieldMerger
	events   Events
	graph    GraphProjector
	validate *validator.Validate
	logger   ectologger.Logger
}

func NewResolver(
	db TxManager,
	members MemberStore,
	flags FlagStore,
	history HistoryStore,
	photos PhotoStore,
	events Events,
	graph GraphProjector,
	logger ectologger.Logger,
) *Resolver {
	return &Resolver{
		db:       db,
		members:  members,
		flags:    flags,
		history:  history,
		photos:   photos,
		merger:   NewFieldMerger(),
		events:   events,
		graph:    graph,
		validate: validator.New(),
		logger:   logger,
	}
}

// ResolveDuplicate applies a reviewer decision to a duplicate flag. Status
// decisions are a single conditional update; a merge runs the full
// consolidation inside one transaction. A flag that already left the active
// states fails with a conflict so racers see "someone else handled this".
func (r *Resolver) ResolveDuplicate(ctx context.Context, flagID string, req models.ResolveDuplicateRequest) (*models.MergeOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Resolver.ResolveDuplicate")
	defer span.End()

	if err := r.validate.Struct(req); err != nil {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid resolve request: %s", err))
	}

	flag, err := r.flags.Get(ctx, flagID)
	if err != nil {
		return nil, err
	}

	if !flag.Status.Active() {
		return nil, httperror.NewHTTPError(http.StatusConflict, "duplicate flag is already resolved")
	}

	if req.Action == models.ResolveActionMerge {
		return r.merge(ctx, flag, req)
	}

	return r.resolveStatusOnly(ctx, flag, req)
}

func (r *Resolver) resolveStatusOnly(ctx context.Context, flag *models.DuplicateFlag, req models.ResolveDuplicateRequest) (*models.MergeOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Resolver.resolveStatusOnly")
	defer span.End()

	status := models.FlagStatusNotDuplicate
	if req.Action == models.ResolveActionConfirm {
		status = models.FlagStatusConfirmed
	}

	resolution := &models.FlagResolution{Action: req.Action, Note: req.Note}
	won, err := r.flags.ResolveConditional(ctx, flag.ID, status, resolution, sidracontext.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, httperror.NewHTTPError(http.StatusConflict, "duplicate flag is already resolved")
	}

	r.notifyFlagResolved(ctx, flag.ID, req.Action)

	return &models.MergeOutcome{FlagID: flag.ID}, nil
}

func (r *Resolver) merge(ctx context.Context, flag *models.DuplicateFlag, req models.ResolveDuplicateRequest) (*models.MergeOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "merging.Resolver.merge")
	defer span.End()

	if req.KeepMemberID != flag.SourceMemberID && req.KeepMemberID != flag.TargetMemberID {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "keepMemberId must be one of the flagged members")
	}

	removeID := flag.SourceMemberID
	if req.KeepMemberID == flag.SourceMemberID {
		removeID = flag.TargetMemberID
	}

	strategy := req.MergeStrategy
	if strategy == "" {
		strategy = models.MergeStrategyFillEmpty
	}

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"flag_id":   flag.ID,
		"keep_id":   req.KeepMemberID,
		"remove_id": removeID,
		"strategy":  strategy,
	})

	// Rollback must see the pre-transaction context; the transaction-bearing
	// context treats rollback as a nested no-op.
	txCtx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin merge transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// re-check inside the transaction so a lost race reads as a conflict,
	// not as a missing member
	current, err := r.flags.Get(txCtx, flag.ID)
	if err != nil {
		return nil, err
	}
	if !current.Status.Active() {
		return nil, httperror.NewHTTPError(http.StatusConflict, "duplicate flag is already resolved")
	}

	keep, err := r.members.Get(txCtx, req.KeepMemberID)
	if err != nil {
		return nil, err
	}
	remove, err := r.members.Get(txCtx, removeID)
	if err != nil {
		return nil, err
	}

	// journal before mutating so the snapshot shows the member as it was
	snapshot, err := json.Marshal(keep)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to snapshot member")
	}

	mergedFields := r.merger.Merge(keep, remove, keep.ID == flag.SourceMemberID, strategy)

	// keep may point at remove as its father; inherit remove's own father so
	// the deletion cannot orphan the chain or create a self-cycle
	if keep.FatherID != nil && *keep.FatherID == remove.ID {
		keep.FatherID = remove.FatherID
	}

	resolution := &models.FlagResolution{
		Action:          models.ResolveActionMerge,
		KeptMemberID:    keep.ID,
		RemovedMemberID: remove.ID,
		MergeStrategy:   strategy,
		MergedFields:    mergedFields,
		Note:            req.Note,
	}

	// claim the flag first: this conditional update is the race gate
	won, err := r.flags.ResolveConditional(txCtx, flag.ID, models.FlagStatusMerged, resolution, sidracontext.GetUserID(ctx))
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, httperror.NewHTTPError(http.StatusConflict, "duplicate flag is already resolved")
	}

	batchID := uuid.New().String()
	record := &models.MemberHistory{
		MemberID:  keep.ID,
		Action:    models.HistoryActionMerged,
		Snapshot:  snapshot,
		Note:      fmt.Sprintf("absorbed member %s (%s)", remove.ID, remove.FullName()),
		BatchID:   batchID,
		ChangedBy: sidracontext.GetUserID(ctx),
	}
	if err := r.history.Create(txCtx, record); err != nil {
		return nil, err
	}

	if err := r.members.Update(txCtx, keep); err != nil {
		return nil, err
	}

	childrenRepointed, err := r.members.RepointChildren(txCtx, remove.ID, keep.ID, keep.Generation+1)
	if err != nil {
		return nil, err
	}

	photosTransferred, err := r.photos.TransferOwnership(txCtx, remove.ID, keep.ID)
	if err != nil {
		return nil, err
	}

	if _, err := r.history.Repoint(txCtx, remove.ID, keep.ID); err != nil {
		return nil, err
	}

	if err := r.members.Delete(txCtx, remove.ID); err != nil {
		return nil, err
	}

	flagsCleared, err := r.flags.DeleteActiveByMember(txCtx, remove.ID, flag.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit merge")
	}

	outcome := &models.MergeOutcome{
		FlagID:            flag.ID,
		KeptMemberID:      keep.ID,
		RemovedMemberID:   remove.ID,
		MergeStrategy:     strategy,
		MergedFields:      mergedFields,
		ChildrenRepointed: childrenRepointed,
		PhotosTransferred: photosTransferred,
		FlagsCleared:      flagsCleared,
	}

	log.WithFields(map[string]any{
		"merged_fields":      len(mergedFields),
		"children_repointed": childrenRepointed,
		"photos_transferred": photosTransferred,
		"flags_cleared":      flagsCleared,
		"batch_id":           batchID,
	}).Info("merged duplicate members")

	r.notifyMerged(ctx, outcome)

	return outcome, nil
}

func (r *Resolver) notifyMerged(ctx context.Context, outcome *models.MergeOutcome) {
	if r.graph != nil {
		if err := r.graph.ProjectMerge(ctx, outcome.KeptMemberID, outcome.RemovedMemberID); err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("failed to project merge into lineage graph")
		}
	}
	if r.events != nil {
		if err := r.events.MemberMerged(ctx, outcome); err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("failed to emit member merged event")
		}
	}
}

func (r *Resolver) notifyFlagResolved(ctx context.Context, flagID string, action models.ResolveAction) {
	if r.events == nil {
		return
	}
	if err := r.events.FlagResolved(ctx, flagID, action); err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("failed to emit flag resolved event")
	}
}
