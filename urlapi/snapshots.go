package urlapi

import (
	"fmt"

	"github.com/google/uuid"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/analytics/util"
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"
)

func (u *URLAPI) enableSnapshotHandlers() error {
	if !u.service.HasDatabase() {
		log.Warnf("no snapshot storage, snapshot methods disabled")
		return nil
	}
	if err := u.registerMethod(
		"/priv/elections/{electionId}/snapshots",
		"POST",
		true,
		u.captureSnapshotHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/priv/snapshots",
		"POST",
		true,
		u.captureAllHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/priv/elections/{electionId}/snapshots",
		"GET",
		true,
		u.listSnapshotsHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/priv/snapshots/{snapshotId}",
		"GET",
		true,
		u.getSnapshotHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/priv/elections/{electionId}/snapshots",
		"DELETE",
		true,
		u.deleteSnapshotsHandler,
	); err != nil {
		return err
	}
	return nil
}

// POST https://server/v1/priv/elections/<electionId>/snapshots
// captureSnapshotHandler stores the current summary of an election
func (u *URLAPI) captureSnapshotHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	if resp.Snapshot, err = u.service.CaptureSnapshot(ctx.Request.Context(), electionID); err != nil {
		return err
	}
	return sendResponse(resp, ctx)
}

// POST https://server/v1/priv/snapshots
// captureAllHandler stores the current summary of every election
func (u *URLAPI) captureAllHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var resp types.APIResponse
	count, err := u.service.CaptureAll(ctx.Request.Context())
	if err != nil {
		return err
	}
	resp.Message = fmt.Sprintf("%d snapshots stored", count)
	return sendResponse(resp, ctx)
}

// GET https://server/v1/priv/elections/<electionId>/snapshots?count=10&skip=0&order=desc
func (u *URLAPI) listSnapshotsHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	var opts *types.ListOptions
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	if opts, err = util.GetListOptions(ctx); err != nil {
		return err
	}
	if resp.Snapshots, err = u.service.Snapshots(electionID, opts); err != nil {
		return fmt.Errorf("could not list snapshots of election %d: %w", electionID, err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/priv/snapshots/<snapshotId>
func (u *URLAPI) getSnapshotHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var snapshotID uuid.UUID
	if snapshotID, err = util.GetUUID(ctx, "snapshotId"); err != nil {
		return err
	}
	if resp.Snapshot, err = u.service.Snapshot(snapshotID); err != nil {
		return fmt.Errorf("could not get snapshot %s: %w", snapshotID, err)
	}
	return sendResponse(resp, ctx)
}

// DELETE https://server/v1/priv/elections/<electionId>/snapshots
func (u *URLAPI) deleteSnapshotsHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	removed, err := u.service.DeleteSnapshots(electionID)
	if err != nil {
		return fmt.Errorf("could not delete snapshots of election %d: %w", electionID, err)
	}
	resp.Removed = &removed
	return sendResponse(resp, ctx)
}
