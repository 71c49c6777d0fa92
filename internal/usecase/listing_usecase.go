package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ListingUsecase writes every copy of a listing in the order that keeps a
// failed sequence resumable.
type ListingUsecase struct {
	base
}

func NewListingUsecase(client store.Client, events EventPublisher, m *metrics.MetricsManager, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{base: newBase(client, events, m, log, "ListingUsecase")}
}

// ListingInput carries already validated form values.
type ListingInput struct {
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Category           string  `json:"category"`
	ClassType          string  `json:"classType"`
	Difficulty         string  `json:"difficulty"`
	SubscriberPrice    float64 `json:"subscriberPrice"`
	NonSubscriberPrice float64 `json:"nonSubscriberPrice"`
	Date               string  `json:"date"`
	Time               string  `json:"time"`
	Location           string  `json:"location"`
	AvailableSeats     int     `json:"availableSeats"`
	InstructorName     string  `json:"instructorName"`
	ImageRef           string  `json:"imageRef"`
	// RequestID makes a retried create land on the same keys.
	RequestID string `json:"requestId,omitempty"`
}

func (in ListingInput) listing(ownerID string) entity.Listing {
	return entity.Listing{
		Title:              in.Title,
		Description:        in.Description,
		Category:           in.Category,
		ClassType:          in.ClassType,
		Difficulty:         in.Difficulty,
		SubscriberPrice:    in.SubscriberPrice,
		NonSubscriberPrice: in.NonSubscriberPrice,
		Date:               in.Date,
		Time:               in.Time,
		Location:           in.Location,
		AvailableSeats:     in.AvailableSeats,
		InstructorID:       ownerID,
		InstructorName:     in.InstructorName,
		ImageRef:           in.ImageRef,
	}
}

// UpdateResult is a successful update. Warnings hold non-fatal orphan reports.
type UpdateResult struct {
	Listing  entity.Listing `json:"listing"`
	Warnings []error        `json:"-"`
}

// DeleteResult lists what a delete removed. Warnings hold non-fatal orphan
// reports, such as a global record that belongs to another mirror.
type DeleteResult struct {
	GlobalIDs []string `json:"globalIds,omitempty"`
	Removed   []string `json:"removed"`
	UsedScan  bool     `json:"usedScan"`
	Warnings  []error  `json:"-"`
}

func seeds(parts ...string) []string {
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return []string{store.Join(parts...)}
}

// CreateDraft stores a draft. Partial fields are allowed.
func (uc *ListingUsecase) CreateDraft(ctx context.Context, ownerID string, in ListingInput) (entity.Listing, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return entity.Listing{}, err
	}
	l := in.listing(ownerID)
	l.Status = entity.StatusDraft
	if err := l.Validate(); err != nil {
		return entity.Listing{}, err
	}

	ctx, op := uc.begin(ctx, "create_draft", attribute.String("owner_id", ownerID))
	now := uc.now()
	l.CreatedAt, l.UpdatedAt = now, now

	var key string
	err := op.step("allocate_draft", func() (err error) {
		key, err = uc.client.AppendChild(ctx, schema.OwnerDrafts(ownerID), seeds("draft", in.RequestID)...)
		return err
	})
	if err == nil {
		err = op.step("write_draft", func() error {
			return uc.client.WriteAll(ctx, schema.OwnerDraft(ownerID, key), l.Value())
		})
	}
	if err = op.end(err); err != nil {
		return entity.Listing{}, err
	}
	l.ID = key
	uc.log.Info("Draft created", zap.String("owner_id", ownerID), zap.String("draft_id", key))
	uc.publish(ctx, SubjectListingCreated, listingEvent(ownerID, l))
	return l, nil
}

// CreateListing creates a listing directly as pending, skipping the draft.
// The returned listing is the owner mirror.
func (uc *ListingUsecase) CreateListing(ctx context.Context, ownerID string, in ListingInput) (entity.Listing, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return entity.Listing{}, err
	}
	l := in.listing(ownerID)
	if err := entity.ValidateTransition("", entity.StatusPending); err != nil {
		return entity.Listing{}, err
	}
	if err := l.ValidateForPublish(); err != nil {
		return entity.Listing{}, err
	}

	ctx, op := uc.begin(ctx, "create_listing", attribute.String("owner_id", ownerID))
	mirror, err := uc.writePair(ctx, op, ownerID, l, seeds("create", ownerID, in.RequestID), seeds("create", in.RequestID))
	if err = op.end(err); err != nil {
		return entity.Listing{}, err
	}
	uc.log.Info("Listing created", zap.String("owner_id", ownerID), zap.String("global_id", mirror.GlobalID), zap.String("mirror_id", mirror.ID))
	uc.publish(ctx, SubjectListingCreated, listingEvent(ownerID, mirror))
	return mirror, nil
}

// PublishDraft moves a draft to pending:
//  1. read the draft
//  2. check the fields publishing requires
//  3. write the global record with no back-reference yet
//  4. write the owner mirror pointing at the global record
//  5. set the global back-reference
//  6. remove the draft
//
// The draft goes last so any failure leaves it in place. Keys are seeded by
// the draft key, so re-running after a failure converges on the same pair.
func (uc *ListingUsecase) PublishDraft(ctx context.Context, ownerID, draftID string) (entity.Listing, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return entity.Listing{}, err
	}
	if err := requireID("draftId", draftID); err != nil {
		return entity.Listing{}, err
	}

	ctx, op := uc.begin(ctx, "publish_draft", attribute.String("owner_id", ownerID), attribute.String("draft_id", draftID))
	draftPath := schema.OwnerDraft(ownerID, draftID)

	var (
		draft entity.Listing
		found bool
	)
	err := op.step("read_draft", func() (err error) {
		draft, found, err = uc.readListing(ctx, draftPath)
		return err
	})
	if err != nil {
		return entity.Listing{}, op.end(err)
	}
	if !found {
		// The last step of an earlier attempt may already have run.
		mirror, ok, err := uc.publishedFrom(ctx, ownerID, draftID)
		if err != nil {
			return entity.Listing{}, op.end(err)
		}
		if ok {
			op.end(nil)
			return mirror, nil
		}
		return entity.Listing{}, op.end(entity.NotFoundError(draftPath))
	}
	if err := entity.ValidateTransition(draft.Status, entity.StatusPending); err != nil {
		return entity.Listing{}, op.end(err)
	}
	if err := draft.ValidateForPublish(); err != nil {
		return entity.Listing{}, op.end(err)
	}

	draft.InstructorID = ownerID
	draft.SourceDraftID = draftID
	mirror, err := uc.writePair(ctx, op, ownerID, draft, seeds("publish", ownerID, draftID), seeds("publish", draftID))
	if err == nil {
		err = op.step("remove_draft", func() error {
			return uc.client.RemoveSubtree(ctx, draftPath)
		})
	}
	if err = op.end(err); err != nil {
		return entity.Listing{}, err
	}

	uc.log.Info("Draft published",
		zap.String("owner_id", ownerID),
		zap.String("draft_id", draftID),
		zap.String("global_id", mirror.GlobalID),
		zap.String("mirror_id", mirror.ID))
	uc.publish(ctx, SubjectListingPublished, listingEvent(ownerID, mirror))
	return mirror, nil
}

// publishedFrom finds the mirror an earlier publish of draftID produced.
func (uc *ListingUsecase) publishedFrom(ctx context.Context, ownerID, draftID string) (entity.Listing, bool, error) {
	key, err := uc.client.AppendChild(ctx, schema.OwnerPublished(ownerID), seeds("publish", draftID)...)
	if err != nil {
		return entity.Listing{}, false, err
	}
	mirror, ok, err := uc.readListing(ctx, schema.OwnerPublishedEntry(ownerID, key))
	if err != nil || !ok || mirror.SourceDraftID != draftID {
		return entity.Listing{}, false, err
	}
	return mirror, true, nil
}

// writePair writes the global record, then the mirror, then links them.
// A global record left by an earlier attempt keeps its status and derived
// fields, so a retry never undoes moderation.
func (uc *ListingUsecase) writePair(ctx context.Context, op *operation, ownerID string, l entity.Listing, globalSeed, mirrorSeed []string) (entity.Listing, error) {
	now := uc.now()
	l.Status = entity.StatusPending
	l.Rating, l.SubscriberCount = 0, 0
	l.CreatedAt, l.UpdatedAt = now, now
	l.GlobalID, l.OwnerLocalID = "", ""

	var globalID string
	err := op.step("allocate_global", func() (err error) {
		globalID, err = uc.client.AppendChild(ctx, schema.Registry(), globalSeed...)
		return err
	})
	if err != nil {
		return entity.Listing{}, err
	}
	globalPath := schema.RegistryEntry(globalID)

	global := l
	global.GlobalID = globalID
	err = op.step("write_global", func() error {
		if len(globalSeed) > 0 {
			prev, ok, err := uc.readListing(ctx, globalPath)
			if err != nil {
				return err
			}
			if ok {
				global.Status = prev.Status
				global.Rating = prev.Rating
				global.SubscriberCount = prev.SubscriberCount
				global.CreatedAt = prev.CreatedAt
				global.OwnerLocalID = prev.OwnerLocalID
			}
		}
		return uc.client.WriteAll(ctx, globalPath, global.Value())
	})
	if err != nil {
		return entity.Listing{}, err
	}

	var mirrorID string
	err = op.step("allocate_mirror", func() (err error) {
		mirrorID, err = uc.client.AppendChild(ctx, schema.OwnerPublished(ownerID), mirrorSeed...)
		return err
	})
	if err != nil {
		return entity.Listing{}, err
	}
	mirror := global
	mirror.OwnerLocalID = ""
	err = op.step("write_mirror", func() error {
		return uc.client.WriteAll(ctx, schema.OwnerPublishedEntry(ownerID, mirrorID), mirror.Value())
	})
	if err != nil {
		return entity.Listing{}, err
	}

	err = op.step("link_global", func() error {
		return uc.client.UpdateFields(ctx, globalPath, store.Value{entity.FieldOwnerLocalID: mirrorID})
	})
	if err != nil {
		return entity.Listing{}, err
	}
	mirror.ID = mirrorID
	return mirror, nil
}

// UpdateListing applies an owner edit. A draft is updated in place. A
// published listing is updated on the mirror, then on the global record when
// its reference resolves; an unresolvable global is a warning, not a failure.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, ownerID, localID string, patch entity.ListingPatch) (UpdateResult, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return UpdateResult{}, err
	}
	if err := requireID("localId", localID); err != nil {
		return UpdateResult{}, err
	}
	if patch.IsEmpty() {
		return UpdateResult{}, &entity.ValidationError{Reason: "empty update"}
	}
	if patch.Status != nil {
		return UpdateResult{}, &entity.ValidationError{Fields: []string{entity.FieldStatus}, Reason: "status is set by moderation"}
	}
	if patch.GlobalID != nil || patch.OwnerLocalID != nil {
		return UpdateResult{}, &entity.ValidationError{Fields: []string{entity.FieldGlobalID, entity.FieldOwnerLocalID}, Reason: "cross-references are managed by the service"}
	}

	ctx, op := uc.begin(ctx, "update_listing", attribute.String("owner_id", ownerID), attribute.String("local_id", localID))
	fields := patch.Fields()
	fields[entity.FieldUpdatedAt] = store.Millis(uc.now())

	draftPath := schema.OwnerDraft(ownerID, localID)
	var (
		draft   entity.Listing
		isDraft bool
	)
	err := op.step("read_draft", func() (err error) {
		draft, isDraft, err = uc.readListing(ctx, draftPath)
		return err
	})
	if err != nil {
		return UpdateResult{}, op.end(err)
	}
	if isDraft {
		merged, err := entity.MergeListing(draft, patch)
		if err != nil {
			return UpdateResult{}, op.end(err)
		}
		err = op.step("update_draft", func() error {
			return uc.client.UpdateFields(ctx, draftPath, fields)
		})
		if err = op.end(err); err != nil {
			return UpdateResult{}, err
		}
		uc.log.Info("Draft updated", zap.String("owner_id", ownerID), zap.String("draft_id", localID))
		return UpdateResult{Listing: merged}, nil
	}

	mirrorPath := schema.OwnerPublishedEntry(ownerID, localID)
	var (
		mirror entity.Listing
		found  bool
	)
	err = op.step("read_mirror", func() (err error) {
		mirror, found, err = uc.readListing(ctx, mirrorPath)
		return err
	})
	if err != nil {
		return UpdateResult{}, op.end(err)
	}
	if !found {
		return UpdateResult{}, op.end(entity.NotFoundError(mirrorPath))
	}
	merged, err := entity.MergeListing(mirror, patch)
	if err != nil {
		return UpdateResult{}, op.end(err)
	}

	err = op.step("update_mirror", func() error {
		return uc.client.UpdateFields(ctx, mirrorPath, fields)
	})
	if err != nil {
		return UpdateResult{}, op.end(err)
	}

	var result UpdateResult
	if mirror.GlobalID == "" {
		orphan := &entity.OrphanError{Path: mirrorPath, Missing: entity.FieldGlobalID}
		uc.orphan("update_listing", orphan)
		result.Warnings = append(result.Warnings, orphan)
	} else {
		globalPath := schema.RegistryEntry(mirror.GlobalID)
		var (
			global       entity.Listing
			globalExists bool
		)
		err = op.step("read_global", func() (err error) {
			global, globalExists, err = uc.readListing(ctx, globalPath)
			return err
		})
		if err != nil {
			return UpdateResult{}, op.end(err)
		}
		switch {
		case !globalExists:
			orphan := &entity.OrphanError{Path: mirrorPath, Missing: globalPath}
			uc.orphan("update_listing", orphan)
			result.Warnings = append(result.Warnings, orphan)
		case global.OwnerLocalID != "" && global.OwnerLocalID != localID:
			// The global record belongs to another mirror; writing to it
			// would spread the break.
			orphan := &entity.OrphanError{Path: mirrorPath, Missing: globalPath + " back-reference"}
			uc.orphan("update_listing", orphan)
			result.Warnings = append(result.Warnings, orphan)
		default:
			err = op.step("update_global", func() error {
				return uc.client.UpdateFields(ctx, globalPath, fields)
			})
			if err != nil {
				return UpdateResult{}, op.end(err)
			}
			merged.Status = global.Status
		}
	}
	op.end(nil)

	result.Listing = merged
	uc.log.Info("Listing updated",
		zap.String("owner_id", ownerID),
		zap.String("local_id", localID),
		zap.String("global_id", mirror.GlobalID),
		zap.Int("warnings", len(result.Warnings)))
	uc.publish(ctx, SubjectListingUpdated, listingEvent(ownerID, merged))
	return result, nil
}

// SetStatus is the admin moderation move. It touches only the global record;
// owners see the change through their subscription.
func (uc *ListingUsecase) SetStatus(ctx context.Context, globalID string, status entity.ListingStatus) (entity.Listing, error) {
	if err := requireID(entity.FieldGlobalID, globalID); err != nil {
		return entity.Listing{}, err
	}
	ctx, op := uc.begin(ctx, "set_status", attribute.String("global_id", globalID), attribute.String("status", string(status)))
	globalPath := schema.RegistryEntry(globalID)

	var (
		global entity.Listing
		found  bool
	)
	err := op.step("read_global", func() (err error) {
		global, found, err = uc.readListing(ctx, globalPath)
		return err
	})
	if err != nil {
		return entity.Listing{}, op.end(err)
	}
	if !found {
		return entity.Listing{}, op.end(entity.NotFoundError(globalPath))
	}
	if status == global.Status {
		op.end(nil)
		return global, nil
	}
	merged, err := entity.MergeListing(global, entity.ListingPatch{Status: &status})
	if err != nil {
		return entity.Listing{}, op.end(err)
	}
	if !entity.IsAdminTransition(global.Status, status) {
		return entity.Listing{}, op.end(fmt.Errorf("%w: %s -> %s is not a moderation move", entity.ErrInvalidTransition, global.Status, status))
	}
	merged.UpdatedAt = uc.now()
	err = op.step("update_global", func() error {
		return uc.client.UpdateFields(ctx, globalPath, store.Value{
			entity.FieldStatus:    string(status),
			entity.FieldUpdatedAt: store.Millis(merged.UpdatedAt),
		})
	})
	if err = op.end(err); err != nil {
		return entity.Listing{}, err
	}

	uc.log.Info("Listing status changed",
		zap.String("global_id", globalID),
		zap.String("from", string(global.Status)),
		zap.String("to", string(status)))
	uc.publish(ctx, SubjectListingStatusChanged, map[string]interface{}{
		"global_id": globalID,
		"from":      global.Status,
		"to":        status,
	})
	return merged, nil
}

// DeleteListing removes every copy of the listing at localID:
//  1. mark the mirror as deleting
//  2. remove the global record, while the mirror still holds its reference
//  3. remove the mirror, then the draft
//
// A failed delete can be re-run without losing the way to the global record,
// and the reconciler finishes a marked mirror instead of rebuilding its pair.
// A global record whose back-reference names another mirror is left alone.
// Without a reference the registry is scanned by (owner, title); with nothing
// left to find the delete is a silent success.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, ownerID, localID string) (DeleteResult, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return DeleteResult{}, err
	}
	if err := requireID("localId", localID); err != nil {
		return DeleteResult{}, err
	}
	ctx, op := uc.begin(ctx, "delete_listing", attribute.String("owner_id", ownerID), attribute.String("local_id", localID))
	mirrorPath := schema.OwnerPublishedEntry(ownerID, localID)
	draftPath := schema.OwnerDraft(ownerID, localID)

	var (
		mirror, draft       entity.Listing
		hasMirror, hasDraft bool
	)
	err := op.step("read_copies", func() (err error) {
		if mirror, hasMirror, err = uc.readListing(ctx, mirrorPath); err != nil {
			return err
		}
		draft, hasDraft, err = uc.readListing(ctx, draftPath)
		return err
	})
	if err != nil {
		return DeleteResult{}, op.end(err)
	}

	var result DeleteResult
	if hasMirror && mirror.GlobalID != "" {
		globalPath := schema.RegistryEntry(mirror.GlobalID)
		var (
			global       entity.Listing
			globalExists bool
		)
		err = op.step("read_global", func() (err error) {
			global, globalExists, err = uc.readListing(ctx, globalPath)
			return err
		})
		if err != nil {
			return DeleteResult{}, op.end(err)
		}
		if globalExists && global.OwnerLocalID != "" && global.OwnerLocalID != localID {
			orphan := &entity.OrphanError{Path: mirrorPath, Missing: globalPath + " back-reference"}
			uc.orphan("delete_listing", orphan)
			result.Warnings = append(result.Warnings, orphan)
		} else {
			result.GlobalIDs = []string{mirror.GlobalID}
		}
	} else {
		title := mirror.Title
		if !hasMirror {
			title = draft.Title
		}
		if title != "" && (hasMirror || hasDraft) {
			var matches []entity.Listing
			err = op.step("scan_registry", func() (err error) {
				matches, err = uc.findOrphanedGlobals(ctx, ownerID, title, localID)
				return err
			})
			if err != nil {
				return DeleteResult{}, op.end(err)
			}
			result.UsedScan = true
			for _, g := range matches {
				result.GlobalIDs = append(result.GlobalIDs, g.ID)
			}
		}
	}

	if hasMirror && len(result.GlobalIDs) > 0 && !mirror.Deleting {
		err = op.step("mark_mirror", func() error {
			return uc.client.UpdateFields(ctx, mirrorPath, store.Value{entity.FieldDeleting: true})
		})
		if err != nil {
			return DeleteResult{}, op.end(err)
		}
	}
	for _, gid := range result.GlobalIDs {
		gid := gid
		err = op.step("remove_global", func() error {
			return uc.client.RemoveSubtree(ctx, schema.RegistryEntry(gid))
		})
		if err != nil {
			return DeleteResult{}, op.end(err)
		}
		result.Removed = append(result.Removed, schema.RegistryEntry(gid))
	}
	if hasMirror {
		err = op.step("remove_mirror", func() error {
			return uc.client.RemoveSubtree(ctx, mirrorPath)
		})
		if err != nil {
			return DeleteResult{}, op.end(err)
		}
		result.Removed = append(result.Removed, mirrorPath)
	}
	err = op.step("remove_draft", func() error {
		return uc.client.RemoveSubtree(ctx, draftPath)
	})
	if err != nil {
		return DeleteResult{}, op.end(err)
	}
	if hasDraft {
		result.Removed = append(result.Removed, draftPath)
	}
	op.end(nil)

	// Child logs of a removed global record are unreachable; losing them is
	// harmless, so failures here are only logged.
	for _, gid := range result.GlobalIDs {
		for _, p := range []string{schema.Reviews(gid), schema.Enrollments(gid)} {
			if err := uc.client.RemoveSubtree(ctx, p); err != nil {
				uc.log.Warn("Failed to remove child log of deleted listing", zap.String("path", p), zap.Error(err))
			}
		}
	}

	uc.log.Info("Listing deleted",
		zap.String("owner_id", ownerID),
		zap.String("local_id", localID),
		zap.Strings("removed", result.Removed),
		zap.Bool("used_scan", result.UsedScan),
		zap.Int("warnings", len(result.Warnings)))
	if len(result.Removed) > 0 {
		uc.publish(ctx, SubjectListingDeleted, map[string]interface{}{
			"owner_id":   ownerID,
			"local_id":   localID,
			"global_ids": result.GlobalIDs,
		})
	}
	return result, nil
}

// GetListing reads the global record.
func (uc *ListingUsecase) GetListing(ctx context.Context, globalID string) (entity.Listing, error) {
	if err := requireID(entity.FieldGlobalID, globalID); err != nil {
		return entity.Listing{}, err
	}
	path := schema.RegistryEntry(globalID)
	l, ok, err := uc.readListing(ctx, path)
	if err != nil {
		return entity.Listing{}, fmt.Errorf("get listing: %w", err)
	}
	if !ok {
		return entity.Listing{}, entity.NotFoundError(path)
	}
	return l, nil
}

// ListCatalog returns the discoverable global records, newest first.
func (uc *ListingUsecase) ListCatalog(ctx context.Context) ([]entity.Listing, error) {
	all, err := uc.readListings(ctx, schema.Registry())
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	out := all[:0]
	for _, l := range all {
		if l.Status.Discoverable() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (uc *ListingUsecase) ListOwnerPublished(ctx context.Context, ownerID string) ([]entity.Listing, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return nil, err
	}
	out, err := uc.readListings(ctx, schema.OwnerPublished(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}
	return out, nil
}

func (uc *ListingUsecase) ListOwnerDrafts(ctx context.Context, ownerID string) ([]entity.Listing, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return nil, err
	}
	out, err := uc.readListings(ctx, schema.OwnerDrafts(ownerID))
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return out, nil
}

func sortListings(ls []entity.Listing) {
	sort.Slice(ls, func(i, j int) bool {
		if !ls[i].CreatedAt.Equal(ls[j].CreatedAt) {
			return ls[i].CreatedAt.After(ls[j].CreatedAt)
		}
		return ls[i].ID < ls[j].ID
	})
}

func listingEvent(ownerID string, l entity.Listing) map[string]interface{} {
	return map[string]interface{}{
		"owner_id":  ownerID,
		"local_id":  l.ID,
		"global_id": l.GlobalID,
		"title":     l.Title,
		"status":    l.Status,
	}
}
