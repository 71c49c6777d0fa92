package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileUsecase_Consistent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)

	f, err := env.reconciler.Classify(ctx, mirror.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, Consistent, f.Classification)
	assert.Equal(t, mirror.ID, f.MirrorID)
	assert.Empty(t, f.StaleDraftID)

	f, err = env.reconciler.ClassifyMirror(ctx, "U1", mirror.ID)
	require.NoError(t, err)
	assert.Equal(t, Consistent, f.Classification)

	f, err = env.reconciler.Classify(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, Consistent, f.Classification)
	assert.Nil(t, f.Global)
}

func TestReconcileUsecase_StatusFlowsToMirror(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)
	_, err := env.listings.SetStatus(ctx, mirror.GlobalID, entity.StatusApproved)
	require.NoError(t, err)

	res, err := env.reconciler.ReconcileListing(ctx, mirror.GlobalID)
	require.NoError(t, err)
	assert.Contains(t, res.Actions, "status global->mirror")
	assert.Equal(t, entity.StatusApproved, env.listing(t, schema.OwnerPublishedEntry("U1", mirror.ID)).Status)
}

func TestReconcileUsecase_ContentFlowsToGlobal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)
	title := "Renamed"
	env.store.failOn("update", schema.RegistryEntry(mirror.GlobalID), 1)
	_, err := env.listings.UpdateListing(ctx, "U1", mirror.ID, entity.ListingPatch{Title: &title})
	require.True(t, errors.Is(err, entity.ErrPartialReplication))

	res, err := env.reconciler.ReconcileListing(ctx, mirror.GlobalID)
	require.NoError(t, err)
	assert.Contains(t, res.Actions, "content mirror->global")
	assert.Equal(t, title, env.listing(t, schema.RegistryEntry(mirror.GlobalID)).Title)
}

func TestReconcileUsecase_MissingMirror(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)
	_, err := env.listings.SetStatus(ctx, mirror.GlobalID, entity.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, env.mem.RemoveSubtree(ctx, schema.OwnerPublishedEntry("U1", mirror.ID)))

	f, err := env.reconciler.Classify(ctx, mirror.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, MissingMirror, f.Classification)
	assert.Equal(t, mirror.ID, f.MirrorID)

	_, err = env.reconciler.Repair(ctx, f)
	require.NoError(t, err)
	rebuilt := env.listing(t, schema.OwnerPublishedEntry("U1", mirror.ID))
	assert.Equal(t, mirror.GlobalID, rebuilt.GlobalID)
	assert.Equal(t, entity.StatusApproved, rebuilt.Status)
	assert.Equal(t, "Street Dance Basics", rebuilt.Title)

	f, err = env.reconciler.Classify(ctx, mirror.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, Consistent, f.Classification)
}

func TestReconcileUsecase_InterruptedPublish(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	draft, err := env.listings.CreateDraft(ctx, "U1", streetDance())
	require.NoError(t, err)
	env.store.failOn("write", schema.OwnerPublished("U1"), 1)
	_, err = env.listings.PublishDraft(ctx, "U1", draft.ID)
	require.Error(t, err)

	globals := env.mem.Paths(schema.Registry())
	require.Len(t, globals, 1)
	gid := store.Base(globals[0])

	f, err := env.reconciler.Classify(ctx, gid)
	require.NoError(t, err)
	assert.Equal(t, MissingMirror, f.Classification)
	assert.Equal(t, draft.ID, f.StaleDraftID)

	_, err = env.reconciler.Repair(ctx, f)
	require.NoError(t, err)
	_, ok := env.read(t, schema.OwnerDraft("U1", draft.ID))
	assert.False(t, ok)

	// The owner's retry lands on the mirror the repair created.
	again, err := env.listings.PublishDraft(ctx, "U1", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, gid, again.GlobalID)
	assert.Len(t, env.mem.Paths(schema.OwnerPublished("U1")), 1)
}

func TestReconcileUsecase_MissingGlobal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)
	_, err := env.listings.SetStatus(ctx, mirror.GlobalID, entity.StatusApproved)
	require.NoError(t, err)
	require.NoError(t, env.mem.RemoveSubtree(ctx, schema.RegistryEntry(mirror.GlobalID)))

	f, err := env.reconciler.ClassifyMirror(ctx, "U1", mirror.ID)
	require.NoError(t, err)
	assert.Equal(t, MissingGlobal, f.Classification)

	_, err = env.reconciler.Repair(ctx, f)
	require.NoError(t, err)
	global := env.listing(t, schema.RegistryEntry(mirror.GlobalID))
	assert.Equal(t, entity.StatusPending, global.Status)
	assert.Equal(t, mirror.ID, global.OwnerLocalID)
	assert.Equal(t, entity.StatusPending, env.listing(t, schema.OwnerPublishedEntry("U1", mirror.ID)).Status)
}

func TestReconcileUsecase_CrossRefBroken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)
	// Interrupted before link_global: the back-reference was never written.
	v, _ := env.read(t, schema.RegistryEntry(mirror.GlobalID))
	delete(v, entity.FieldOwnerLocalID)
	require.NoError(t, env.mem.WriteAll(ctx, schema.RegistryEntry(mirror.GlobalID), v))

	f, err := env.reconciler.Classify(ctx, mirror.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, CrossRefBroken, f.Classification)
	assert.Equal(t, mirror.ID, f.MirrorID)

	_, err = env.reconciler.Repair(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, mirror.ID, env.listing(t, schema.RegistryEntry(mirror.GlobalID)).OwnerLocalID)

	f, err = env.reconciler.Classify(ctx, mirror.GlobalID)
	require.NoError(t, err)
	assert.Equal(t, Consistent, f.Classification)
}

func TestReconcileUsecase_MirrorWithoutReference(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)
	v, _ := env.read(t, schema.OwnerPublishedEntry("U1", mirror.ID))
	delete(v, entity.FieldGlobalID)
	require.NoError(t, env.mem.WriteAll(ctx, schema.OwnerPublishedEntry("U1", mirror.ID), v))

	f, err := env.reconciler.ClassifyMirror(ctx, "U1", mirror.ID)
	require.NoError(t, err)
	assert.Equal(t, CrossRefBroken, f.Classification)
	assert.Equal(t, mirror.GlobalID, f.GlobalID)

	_, err = env.reconciler.Repair(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, mirror.GlobalID, env.listing(t, schema.OwnerPublishedEntry("U1", mirror.ID)).GlobalID)

	found, err := env.reconciler.FindOrphanedGlobal(ctx, "U1", "Street Dance Basics")
	require.NoError(t, err)
	assert.Empty(t, found, "a linked global record is not an orphan")
}

func TestReconcileUsecase_Duplicate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mirror := env.publish(t)
	v, _ := env.read(t, schema.OwnerPublishedEntry("U1", mirror.ID))
	require.NoError(t, env.mem.WriteAll(ctx, schema.OwnerPublishedEntry("U1", "copy"), v))

	require.NotEmpty(t, mirror.SourceDraftID)
	require.NoError(t, env.mem.WriteAll(ctx, schema.OwnerDraft("U1", mirror.SourceDraftID), store.Value{entity.FieldTitle: "left over"}))

	f, err := env.reconciler.ClassifyMirror(ctx, "U1", "copy")
	require.NoError(t, err)
	assert.Equal(t, Duplicate, f.Classification)
	assert.Equal(t, mirror.SourceDraftID, f.StaleDraftID)

	_, err = env.reconciler.Repair(ctx, f)
	require.NoError(t, err)
	_, ok := env.read(t, schema.OwnerPublishedEntry("U1", "copy"))
	assert.False(t, ok)
	_, ok = env.read(t, schema.OwnerDraft("U1", mirror.SourceDraftID))
	assert.False(t, ok)
	_, ok = env.read(t, schema.OwnerPublishedEntry("U1", mirror.ID))
	assert.True(t, ok)
}

func TestReconcileUsecase_Sweep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	healthy := env.publish(t)
	lostMirror := env.publish(t)
	lostGlobal := env.publish(t)
	require.NoError(t, env.mem.RemoveSubtree(ctx, schema.OwnerPublishedEntry("U1", lostMirror.ID)))
	require.NoError(t, env.mem.RemoveSubtree(ctx, schema.RegistryEntry(lostGlobal.GlobalID)))

	post, err := env.posts.CreatePost(ctx, "U1", PostInput{Caption: "p"})
	require.NoError(t, err)
	require.NoError(t, env.mem.RemoveSubtree(ctx, schema.OwnerPost("U1", post.OwnerLocalID)))

	report, err := env.reconciler.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 1, report.Listings[MissingMirror])
	assert.Equal(t, 1, report.Listings[MissingGlobal])
	assert.Equal(t, 1, report.Listings[Consistent])
	assert.Equal(t, 2, report.Repaired)
	assert.Equal(t, 1, report.Posts)

	for _, m := range []entity.Listing{healthy, lostMirror, lostGlobal} {
		f, err := env.reconciler.ClassifyMirror(ctx, "U1", m.ID)
		require.NoError(t, err)
		assert.Equal(t, Consistent, f.Classification, m.ID)
	}
	_, ok := env.read(t, schema.OwnerPost("U1", post.OwnerLocalID))
	assert.True(t, ok)

	again, err := env.reconciler.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Repaired)
	assert.Equal(t, 3, again.Listings[Consistent])
}

func TestReconcileUsecase_InterruptedDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("AfterGlobalRemoved", func(t *testing.T) {
		env := newTestEnv(t)
		kept := env.publish(t)
		mirror := env.publish(t)
		env.store.failOn("remove", schema.OwnerPublished("U1"), 1)
		_, err := env.listings.DeleteListing(ctx, "U1", mirror.ID)
		require.True(t, errors.Is(err, entity.ErrPartialReplication))

		f, err := env.reconciler.ClassifyMirror(ctx, "U1", mirror.ID)
		require.NoError(t, err)
		assert.Equal(t, DeleteInterrupted, f.Classification)
		assert.Nil(t, f.Global)

		report, err := env.reconciler.Sweep(ctx)
		require.NoError(t, err)
		assert.Empty(t, report.Failures)
		assert.Equal(t, 1, report.Listings[DeleteInterrupted])
		assert.Zero(t, report.Listings[MissingGlobal])

		// A second sweep has nothing to bring back.
		again, err := env.reconciler.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[Classification]int{Consistent: 1}, again.Listings)
		assert.Equal(t, []string{schema.RegistryEntry(kept.GlobalID)}, env.mem.Paths(schema.Registry()))
		assert.Equal(t, []string{schema.OwnerPublishedEntry("U1", kept.ID)}, env.mem.Paths(schema.OwnerPublished("U1")))
	})

	t.Run("BeforeGlobalRemoved", func(t *testing.T) {
		env := newTestEnv(t)
		mirror := env.publish(t)
		_, err := env.aggregates.AddReview(ctx, mirror.GlobalID, "u9", 5, "great")
		require.NoError(t, err)
		env.store.failOn("remove", schema.Registry(), 1)
		_, err = env.listings.DeleteListing(ctx, "U1", mirror.ID)
		require.Error(t, err)

		f, err := env.reconciler.Classify(ctx, mirror.GlobalID)
		require.NoError(t, err)
		assert.Equal(t, DeleteInterrupted, f.Classification)
		require.NotNil(t, f.Global)

		res, err := env.reconciler.Repair(ctx, f)
		require.NoError(t, err)
		assert.Contains(t, res.Actions, "removed "+schema.RegistryEntry(mirror.GlobalID))
		assert.Contains(t, res.Actions, "removed "+schema.OwnerPublishedEntry("U1", mirror.ID))
		assert.Empty(t, env.mem.Paths(""))
	})

	t.Run("DuplicateLeavesGlobal", func(t *testing.T) {
		env := newTestEnv(t)
		mirror := env.publish(t)
		v, _ := env.read(t, schema.OwnerPublishedEntry("U1", mirror.ID))
		v = v.Clone()
		v[entity.FieldDeleting] = true
		require.NoError(t, env.mem.WriteAll(ctx, schema.OwnerPublishedEntry("U1", "copy"), v))

		f, err := env.reconciler.ClassifyMirror(ctx, "U1", "copy")
		require.NoError(t, err)
		assert.Equal(t, DeleteInterrupted, f.Classification)
		assert.Nil(t, f.Global)

		_, err = env.reconciler.Repair(ctx, f)
		require.NoError(t, err)
		_, ok := env.read(t, schema.RegistryEntry(mirror.GlobalID))
		assert.True(t, ok)
		_, ok = env.read(t, schema.OwnerPublishedEntry("U1", mirror.ID))
		assert.True(t, ok)
	})
}
