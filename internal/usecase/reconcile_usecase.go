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

// Classification is the state of a listing's copies relative to each other.
type Classification string

const (
	Consistent     Classification = "consistent"
	MissingGlobal  Classification = "missing_global"
	MissingMirror  Classification = "missing_mirror"
	CrossRefBroken Classification = "cross_ref_broken"
	// Duplicate is a second mirror claiming a global record whose
	// back-reference names another mirror that claims it too.
	Duplicate Classification = "duplicate"
	// DeleteInterrupted is a mirror marked as deleting whose delete did not
	// finish. Repair completes the delete.
	DeleteInterrupted Classification = "delete_interrupted"
)

// Finding is what Classify saw. Global and Mirror are nil when absent.
type Finding struct {
	Classification Classification  `json:"classification"`
	OwnerID        string          `json:"ownerId,omitempty"`
	GlobalID       string          `json:"globalId,omitempty"`
	MirrorID       string          `json:"mirrorId,omitempty"`
	Global         *entity.Listing `json:"global,omitempty"`
	Mirror         *entity.Listing `json:"mirror,omitempty"`
	// StaleDraftID names a draft copy that must not coexist with a pair.
	StaleDraftID string `json:"staleDraftId,omitempty"`
}

// RepairResult lists the writes a repair made.
type RepairResult struct {
	Finding Finding  `json:"finding"`
	Actions []string `json:"actions"`
}

// SweepReport summarizes a full reconciliation pass.
type SweepReport struct {
	Listings map[Classification]int `json:"listings"`
	Repaired int                    `json:"repaired"`
	Posts    int                    `json:"posts"`
	Failures []string               `json:"failures,omitempty"`
}

// ReconcileUsecase finds and repairs divergence between listing copies.
// Content is repaired from the owner mirror, status from the global record.
type ReconcileUsecase struct {
	base
	aggregates *AggregateUsecase
}

func NewReconcileUsecase(client store.Client, aggregates *AggregateUsecase, m *metrics.MetricsManager, log *logger.Logger) *ReconcileUsecase {
	return &ReconcileUsecase{
		base:       newBase(client, nil, m, log, "ReconcileUsecase"),
		aggregates: aggregates,
	}
}

// Classify inspects the global record globalID and the mirror it names.
// An absent global record is trivially consistent: nothing refers to it.
func (uc *ReconcileUsecase) Classify(ctx context.Context, globalID string) (Finding, error) {
	if err := requireID(entity.FieldGlobalID, globalID); err != nil {
		return Finding{}, err
	}
	f := Finding{Classification: Consistent, GlobalID: globalID}
	global, ok, err := uc.readListing(ctx, schema.RegistryEntry(globalID))
	if err != nil {
		return Finding{}, fmt.Errorf("classify %s: %w", globalID, err)
	}
	if !ok {
		return f, nil
	}
	f.Global = &global
	f.OwnerID = global.InstructorID
	if f.OwnerID == "" {
		f.Classification = MissingMirror
		return f, nil
	}

	slotFree := true
	if global.OwnerLocalID != "" {
		mirror, ok, err := uc.readListing(ctx, schema.OwnerPublishedEntry(f.OwnerID, global.OwnerLocalID))
		if err != nil {
			return Finding{}, fmt.Errorf("classify %s: %w", globalID, err)
		}
		switch {
		case ok && mirror.GlobalID == globalID && mirror.Deleting:
			f.Mirror, f.MirrorID = &mirror, mirror.ID
			f.Classification = DeleteInterrupted
			return f, nil
		case ok && mirror.GlobalID == globalID:
			f.Mirror, f.MirrorID = &mirror, mirror.ID
			return uc.withStaleDraft(ctx, f)
		case ok && mirror.GlobalID == "":
			f.Mirror, f.MirrorID = &mirror, mirror.ID
			f.Classification = CrossRefBroken
			return uc.withStaleDraft(ctx, f)
		case ok:
			// The slot belongs to another listing's mirror.
			slotFree = false
		}
	}

	// No mirror where the back-reference points; look for one that claims us.
	mirrors, err := uc.readListings(ctx, schema.OwnerPublished(f.OwnerID))
	if err != nil {
		return Finding{}, fmt.Errorf("classify %s: %w", globalID, err)
	}
	for i := range mirrors {
		if mirrors[i].GlobalID == globalID {
			f.Mirror, f.MirrorID = &mirrors[i], mirrors[i].ID
			if mirrors[i].Deleting {
				f.Global = nil
				return uc.interruptedDelete(ctx, f)
			}
			f.Classification = CrossRefBroken
			return uc.withStaleDraft(ctx, f)
		}
	}
	f.Classification = MissingMirror
	if slotFree {
		f.MirrorID = global.OwnerLocalID
	}
	return uc.withStaleDraft(ctx, f)
}

// ClassifyMirror inspects the owner mirror at localID and the global record it
// names. It is the only way to observe MissingGlobal. An absent mirror is
// trivially consistent; a draft at the same key is an ordinary draft and is
// left alone.
func (uc *ReconcileUsecase) ClassifyMirror(ctx context.Context, ownerID, localID string) (Finding, error) {
	if err := requireID(entity.FieldInstructorID, ownerID); err != nil {
		return Finding{}, err
	}
	if err := requireID("localId", localID); err != nil {
		return Finding{}, err
	}
	f := Finding{Classification: Consistent, OwnerID: ownerID, MirrorID: localID}
	mirror, ok, err := uc.readListing(ctx, schema.OwnerPublishedEntry(ownerID, localID))
	if err != nil {
		return Finding{}, fmt.Errorf("classify mirror %s: %w", localID, err)
	}
	if !ok {
		return f, nil
	}
	f.Mirror = &mirror
	if mirror.Deleting {
		return uc.interruptedDelete(ctx, f)
	}

	if mirror.GlobalID == "" {
		matches, err := uc.findOrphanedGlobals(ctx, ownerID, mirror.Title, localID)
		if err != nil {
			return Finding{}, fmt.Errorf("classify mirror %s: %w", localID, err)
		}
		if len(matches) > 0 {
			f.Global, f.GlobalID = &matches[0], matches[0].ID
			f.Classification = CrossRefBroken
		} else {
			f.Classification = MissingGlobal
		}
		return uc.withStaleDraft(ctx, f)
	}

	f.GlobalID = mirror.GlobalID
	global, ok, err := uc.readListing(ctx, schema.RegistryEntry(mirror.GlobalID))
	if err != nil {
		return Finding{}, fmt.Errorf("classify mirror %s: %w", localID, err)
	}
	if !ok {
		f.Classification = MissingGlobal
		return uc.withStaleDraft(ctx, f)
	}
	f.Global = &global
	if global.OwnerLocalID == localID && global.InstructorID == ownerID {
		return uc.withStaleDraft(ctx, f)
	}
	if global.OwnerLocalID != "" && global.InstructorID == ownerID {
		other, ok, err := uc.readListing(ctx, schema.OwnerPublishedEntry(ownerID, global.OwnerLocalID))
		if err != nil {
			return Finding{}, fmt.Errorf("classify mirror %s: %w", localID, err)
		}
		if ok && other.GlobalID == global.ID {
			// The global record already has a mirror that points back.
			f.Classification = Duplicate
			return uc.withStaleDraft(ctx, f)
		}
	}
	f.Classification = CrossRefBroken
	return uc.withStaleDraft(ctx, f)
}

// interruptedDelete classifies a mirror marked as deleting. The global record
// it names is only attached when its back-reference does not name another
// mirror, so finishing the delete never removes another listing's record.
func (uc *ReconcileUsecase) interruptedDelete(ctx context.Context, f Finding) (Finding, error) {
	f.Classification = DeleteInterrupted
	if f.Mirror.GlobalID == "" {
		return f, nil
	}
	f.GlobalID = f.Mirror.GlobalID
	global, ok, err := uc.readListing(ctx, schema.RegistryEntry(f.GlobalID))
	if err != nil {
		return Finding{}, fmt.Errorf("classify mirror %s: %w", f.MirrorID, err)
	}
	if ok && (global.OwnerLocalID == "" || global.OwnerLocalID == f.MirrorID) {
		f.Global = &global
	}
	return f, nil
}

// withStaleDraft notes the draft a pair was published from when it still exists.
func (uc *ReconcileUsecase) withStaleDraft(ctx context.Context, f Finding) (Finding, error) {
	var src string
	switch {
	case f.Mirror != nil && f.Mirror.SourceDraftID != "":
		src = f.Mirror.SourceDraftID
	case f.Global != nil && f.Global.SourceDraftID != "":
		src = f.Global.SourceDraftID
	default:
		return f, nil
	}
	_, ok, err := uc.client.ReadOnce(ctx, schema.OwnerDraft(f.OwnerID, src))
	if err != nil {
		return Finding{}, err
	}
	if ok {
		f.StaleDraftID = src
	}
	return f, nil
}

// FindOrphanedGlobal scans the whole registry for global records of ownerID
// titled title. It costs O(registry size) and is only used on repair paths
// and when a delete has lost its reference.
func (uc *ReconcileUsecase) FindOrphanedGlobal(ctx context.Context, ownerID, title string) ([]entity.Listing, error) {
	return uc.findOrphanedGlobals(ctx, ownerID, title, "")
}

// findOrphanedGlobals returns registry entries of ownerID titled title whose
// back-reference is empty or equals localID.
func (b *base) findOrphanedGlobals(ctx context.Context, ownerID, title, localID string) ([]entity.Listing, error) {
	b.log.Warn("Scanning registry for orphaned global record",
		zap.String("owner_id", ownerID),
		zap.String("title", title))
	b.metrics.Orphan("registry_scan")
	all, err := b.readListings(ctx, schema.Registry())
	if err != nil {
		return nil, fmt.Errorf("scan registry: %w", err)
	}
	var out []entity.Listing
	for _, g := range all {
		if g.InstructorID != ownerID || g.Title != title {
			continue
		}
		if g.OwnerLocalID != "" && g.OwnerLocalID != localID {
			continue
		}
		out = append(out, g)
	}
	return out, nil
}

// Repair applies the repair policy to f and recomputes derived fields.
func (uc *ReconcileUsecase) Repair(ctx context.Context, f Finding) (RepairResult, error) {
	ctx, op := uc.begin(ctx, "repair", attribute.String("classification", string(f.Classification)), attribute.String("global_id", f.GlobalID))
	res := RepairResult{Finding: f}
	act := func(step, what string, fn func() error) error {
		if err := op.step(step, fn); err != nil {
			return err
		}
		res.Actions = append(res.Actions, what)
		return nil
	}

	var err error
	switch f.Classification {
	case Consistent:
		if f.Global != nil && f.Mirror != nil {
			err = uc.syncPair(ctx, act, f.OwnerID, *f.Global, *f.Mirror, false)
		}
	case MissingMirror:
		err = uc.recreateMirror(ctx, act, f)
	case MissingGlobal:
		err = uc.recreateGlobal(ctx, act, f)
	case Duplicate:
		if f.Mirror != nil {
			err = act("remove_duplicate", "removed "+schema.OwnerPublishedEntry(f.OwnerID, f.Mirror.ID), func() error {
				return uc.client.RemoveSubtree(ctx, schema.OwnerPublishedEntry(f.OwnerID, f.Mirror.ID))
			})
		}
	case DeleteInterrupted:
		err = uc.finishDelete(ctx, act, f)
	case CrossRefBroken:
		if f.Global == nil || f.Mirror == nil {
			err = fmt.Errorf("%w: cross-reference finding without both copies", entity.ErrValidation)
			break
		}
		err = uc.syncPair(ctx, act, f.OwnerID, *f.Global, *f.Mirror, true)
	default:
		err = &entity.ValidationError{Fields: []string{"classification"}, Reason: string(f.Classification)}
	}

	if err == nil && f.StaleDraftID != "" {
		err = act("remove_stale_draft", "removed "+schema.OwnerDraft(f.OwnerID, f.StaleDraftID), func() error {
			return uc.client.RemoveSubtree(ctx, schema.OwnerDraft(f.OwnerID, f.StaleDraftID))
		})
	}
	gid := f.GlobalID
	if err == nil && gid != "" && f.Classification != DeleteInterrupted && (f.Global != nil || f.Classification == MissingGlobal) {
		err = act("recompute_derived", "recomputed derived fields", func() error {
			if _, err := uc.aggregates.RecomputeRating(ctx, gid); err != nil {
				return err
			}
			_, err := uc.aggregates.RecomputeSubscribers(ctx, gid)
			return err
		})
	}
	if err = op.end(err); err != nil {
		return res, err
	}
	if len(res.Actions) > 0 {
		uc.metrics.Repair(string(f.Classification))
		uc.log.Info("Repaired listing",
			zap.String("classification", string(f.Classification)),
			zap.String("global_id", gid),
			zap.String("owner_id", f.OwnerID),
			zap.Strings("actions", res.Actions))
	}
	return res, nil
}

type actFunc func(step, what string, fn func() error) error

// syncPair makes the pair agree: content flows from the mirror, status from
// the global record. relink rewrites both cross-references.
func (uc *ReconcileUsecase) syncPair(ctx context.Context, act actFunc, ownerID string, global, mirror entity.Listing, relink bool) error {
	globalPath := schema.RegistryEntry(global.ID)
	mirrorPath := schema.OwnerPublishedEntry(ownerID, mirror.ID)

	content := mirror.Content()
	if diff := changedFields(global.Value(), content); len(diff) > 0 || relink {
		if relink {
			diff[entity.FieldOwnerLocalID] = mirror.ID
			diff[entity.FieldGlobalID] = global.ID
			diff[entity.FieldInstructorID] = ownerID
		}
		if err := act("update_global", "content mirror->global", func() error {
			return uc.client.UpdateFields(ctx, globalPath, diff)
		}); err != nil {
			return err
		}
	}

	fix := store.Value{}
	if mirror.Status != global.Status {
		fix[entity.FieldStatus] = string(global.Status)
	}
	if relink || mirror.GlobalID != global.ID {
		fix[entity.FieldGlobalID] = global.ID
	}
	if len(fix) > 0 {
		return act("update_mirror", "status global->mirror", func() error {
			return uc.client.UpdateFields(ctx, mirrorPath, fix)
		})
	}
	return nil
}

// recreateMirror rebuilds the owner mirror from the global record. It reuses
// the key the back-reference names when that slot is free, so no
// cross-reference has to change.
func (uc *ReconcileUsecase) recreateMirror(ctx context.Context, act actFunc, f Finding) error {
	if f.Global == nil || f.OwnerID == "" {
		return &entity.OrphanError{Path: schema.RegistryEntry(f.GlobalID), Missing: entity.FieldInstructorID}
	}
	global := *f.Global
	mirrorID := f.MirrorID
	if mirrorID == "" {
		if err := act("allocate_mirror", "allocated mirror key", func() (err error) {
			seed := seeds("publish", global.SourceDraftID)
			if seed == nil {
				seed = seeds("repair", global.ID)
			}
			mirrorID, err = uc.client.AppendChild(ctx, schema.OwnerPublished(f.OwnerID), seed...)
			return err
		}); err != nil {
			return err
		}
	}
	mirror := global
	mirror.OwnerLocalID = ""
	mirror.GlobalID = global.ID
	if err := act("write_mirror", "recreated "+schema.OwnerPublishedEntry(f.OwnerID, mirrorID), func() error {
		return uc.client.WriteAll(ctx, schema.OwnerPublishedEntry(f.OwnerID, mirrorID), mirror.Value())
	}); err != nil {
		return err
	}
	if global.OwnerLocalID != mirrorID {
		return act("link_global", "linked global", func() error {
			return uc.client.UpdateFields(ctx, schema.RegistryEntry(global.ID), store.Value{entity.FieldOwnerLocalID: mirrorID})
		})
	}
	return nil
}

// finishDelete completes a delete that stopped after marking the mirror: the
// global record goes first, then the mirror and any draft at the mirror's key.
func (uc *ReconcileUsecase) finishDelete(ctx context.Context, act actFunc, f Finding) error {
	if f.Mirror == nil {
		return &entity.OrphanError{Path: schema.OwnerPublishedEntry(f.OwnerID, f.MirrorID), Missing: "mirror"}
	}
	if f.Global != nil {
		globalPath := schema.RegistryEntry(f.Global.ID)
		if err := act("remove_global", "removed "+globalPath, func() error {
			return uc.client.RemoveSubtree(ctx, globalPath)
		}); err != nil {
			return err
		}
	}
	mirrorPath := schema.OwnerPublishedEntry(f.OwnerID, f.Mirror.ID)
	if err := act("remove_mirror", "removed "+mirrorPath, func() error {
		return uc.client.RemoveSubtree(ctx, mirrorPath)
	}); err != nil {
		return err
	}
	if err := uc.client.RemoveSubtree(ctx, schema.OwnerDraft(f.OwnerID, f.Mirror.ID)); err != nil {
		return err
	}
	if f.Global != nil {
		for _, p := range []string{schema.Reviews(f.Global.ID), schema.Enrollments(f.Global.ID)} {
			if err := uc.client.RemoveSubtree(ctx, p); err != nil {
				uc.log.Warn("Failed to remove child log of deleted listing", zap.String("path", p), zap.Error(err))
			}
		}
	}
	return nil
}

// recreateGlobal rebuilds the global record from the mirror. The moderation
// decision is lost with it, so the listing goes back to pending.
func (uc *ReconcileUsecase) recreateGlobal(ctx context.Context, act actFunc, f Finding) error {
	if f.Mirror == nil {
		return &entity.OrphanError{Path: schema.OwnerPublishedEntry(f.OwnerID, f.MirrorID), Missing: "mirror"}
	}
	mirror := *f.Mirror
	globalID := mirror.GlobalID
	if globalID == "" {
		if err := act("allocate_global", "allocated global key", func() (err error) {
			globalID, err = uc.client.AppendChild(ctx, schema.Registry(), seeds("repair", f.OwnerID, mirror.ID)...)
			return err
		}); err != nil {
			return err
		}
	}
	global := mirror
	global.GlobalID = globalID
	global.OwnerLocalID = mirror.ID
	global.InstructorID = f.OwnerID
	global.Status = entity.StatusPending
	global.UpdatedAt = uc.now()
	if err := act("write_global", "recreated "+schema.RegistryEntry(globalID), func() error {
		return uc.client.WriteAll(ctx, schema.RegistryEntry(globalID), global.Value())
	}); err != nil {
		return err
	}
	return act("link_mirror", "linked mirror", func() error {
		return uc.client.UpdateFields(ctx, schema.OwnerPublishedEntry(f.OwnerID, mirror.ID), store.Value{
			entity.FieldGlobalID: globalID,
			entity.FieldStatus:   string(entity.StatusPending),
		})
	})
}

// ReconcileListing classifies globalID and repairs it.
func (uc *ReconcileUsecase) ReconcileListing(ctx context.Context, globalID string) (RepairResult, error) {
	f, err := uc.Classify(ctx, globalID)
	if err != nil {
		return RepairResult{}, err
	}
	return uc.Repair(ctx, f)
}

// ReconcilePost recounts the post's derived fields and rebuilds a missing
// owner mirror.
func (uc *ReconcileUsecase) ReconcilePost(ctx context.Context, postID string) ([]string, error) {
	if err := requireID(entity.FieldPostID, postID); err != nil {
		return nil, err
	}
	v, ok, err := uc.client.ReadOnce(ctx, schema.Post(postID))
	if err != nil {
		return nil, fmt.Errorf("reconcile post %s: %w", postID, err)
	}
	if !ok {
		return nil, nil
	}
	post := entity.PostFromValue(postID, v)
	var actions []string

	comments, err := uc.aggregates.RecountComments(ctx, postID)
	if err != nil {
		return actions, err
	}
	if comments != post.CommentCount {
		actions = append(actions, fmt.Sprintf("commentCount %d->%d", post.CommentCount, comments))
	}
	likes, err := uc.aggregates.RecountLikes(ctx, postID)
	if err != nil {
		return actions, err
	}
	if likes != post.LikeCount {
		actions = append(actions, fmt.Sprintf("likeCount %d->%d", post.LikeCount, likes))
	}

	if post.OwnerID == "" {
		return actions, nil
	}
	localID := post.OwnerLocalID
	if localID != "" {
		_, exists, err := uc.client.ReadOnce(ctx, schema.OwnerPost(post.OwnerID, localID))
		if err != nil {
			return actions, err
		}
		if exists {
			return actions, nil
		}
	} else {
		localID, err = uc.client.AppendChild(ctx, schema.OwnerPosts(post.OwnerID), seeds("repair", postID)...)
		if err != nil {
			return actions, err
		}
		if err := uc.client.UpdateFields(ctx, schema.Post(postID), store.Value{entity.FieldOwnerLocalID: localID}); err != nil {
			return actions, err
		}
	}
	if err := uc.client.WriteAll(ctx, schema.OwnerPost(post.OwnerID, localID), post.MirrorValue()); err != nil {
		return actions, err
	}
	actions = append(actions, "recreated "+schema.OwnerPost(post.OwnerID, localID))
	uc.log.Info("Repaired post", zap.String("post_id", postID), zap.Strings("actions", actions))
	return actions, nil
}

// Sweep reconciles every registry entry, every mirror of the owners seen in
// the registry, and every post. One failing entity does not stop the sweep.
func (uc *ReconcileUsecase) Sweep(ctx context.Context) (SweepReport, error) {
	report := SweepReport{Listings: map[Classification]int{}}
	registry, err := uc.client.Children(ctx, schema.Registry())
	if err != nil {
		return report, fmt.Errorf("sweep registry: %w", err)
	}

	owners := map[string]bool{}
	checked := map[string]bool{}
	for _, gid := range sortedKeys(registry) {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		f, err := uc.Classify(ctx, gid)
		if err != nil {
			report.Failures = append(report.Failures, gid+": "+err.Error())
			continue
		}
		if f.OwnerID != "" {
			owners[f.OwnerID] = true
		}
		if f.MirrorID != "" {
			checked[store.Join(f.OwnerID, f.MirrorID)] = true
		}
		uc.sweepRepair(ctx, f, &report, gid)
	}

	for _, owner := range sortedKeys(owners) {
		mirrors, err := uc.client.Children(ctx, schema.OwnerPublished(owner))
		if err != nil {
			report.Failures = append(report.Failures, owner+": "+err.Error())
			continue
		}
		for _, lid := range sortedKeys(mirrors) {
			if checked[store.Join(owner, lid)] {
				continue
			}
			f, err := uc.ClassifyMirror(ctx, owner, lid)
			if err != nil {
				report.Failures = append(report.Failures, owner+"/"+lid+": "+err.Error())
				continue
			}
			uc.sweepRepair(ctx, f, &report, owner+"/"+lid)
		}
	}

	posts, err := uc.client.Children(ctx, schema.Posts())
	if err != nil {
		report.Failures = append(report.Failures, "posts: "+err.Error())
	}
	for _, pid := range sortedKeys(posts) {
		actions, err := uc.ReconcilePost(ctx, pid)
		if err != nil {
			report.Failures = append(report.Failures, pid+": "+err.Error())
			continue
		}
		if len(actions) > 0 {
			report.Posts++
		}
	}

	uc.log.Info("Reconciliation sweep finished",
		zap.Any("listings", report.Listings),
		zap.Int("repaired", report.Repaired),
		zap.Int("posts_repaired", report.Posts),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

func (uc *ReconcileUsecase) sweepRepair(ctx context.Context, f Finding, report *SweepReport, id string) {
	report.Listings[f.Classification]++
	res, err := uc.Repair(ctx, f)
	if err != nil {
		report.Failures = append(report.Failures, id+": "+err.Error())
		return
	}
	if f.Classification != Consistent || hasWrite(res.Actions) {
		report.Repaired++
	}
}

// hasWrite ignores the derived recompute that every repair of a live pair runs.
func hasWrite(actions []string) bool {
	for _, a := range actions {
		if a != "recomputed derived fields" {
			return true
		}
	}
	return false
}

// changedFields returns the entries of want that differ in have.
func changedFields(have, want store.Value) store.Value {
	out := store.Value{}
	for k, v := range want {
		if fmt.Sprint(have[k]) != fmt.Sprint(v) {
			out[k] = v
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
