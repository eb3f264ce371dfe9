package urlapi

import (
	"fmt"

	"go.vocdoni.io/analytics/aggregation"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/analytics/util"
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
)

func (u *URLAPI) enableElectionHandlers() error {
	if err := u.registerMethod(
		"/pub/elections",
		"GET",
		false,
		u.listElectionsHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/elections/status/{status}",
		"GET",
		false,
		u.listElectionsByStatusHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/elections/{electionId}",
		"GET",
		false,
		u.electionSummaryHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/elections/{electionId}/ranking",
		"GET",
		false,
		u.electionRankingHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/elections/{electionId}/timeline",
		"GET",
		false,
		u.electionTimelineHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/elections/{electionId}/provinces",
		"GET",
		false,
		u.electionProvincesHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/elections/{electionId}/voters/{socialId}",
		"GET",
		false,
		u.hasVotedHandler,
	); err != nil {
		return err
	}
	return nil
}

// GET https://server/v1/pub/elections
// listElectionsHandler lists the summaries of every election
func (u *URLAPI) listElectionsHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	if resp.Elections, err = u.service.ElectionList(ctx.Request.Context(), nil); err != nil {
		return fmt.Errorf("could not list elections: %w", err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/status/upcoming
// GET https://server/v1/pub/elections/status/active
// GET https://server/v1/pub/elections/status/expired
// GET https://server/v1/pub/elections/status/disabled
// listElectionsByStatusHandler lists the summaries of the elections in a status
func (u *URLAPI) listElectionsByStatusHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	status, ok := types.ParseElectionStatus(ctx.URLParam("status"))
	if !ok {
		return fmt.Errorf("invalid election status %q", ctx.URLParam("status"))
	}
	if resp.Elections, err = u.service.ElectionList(ctx.Request.Context(), &status); err != nil {
		return fmt.Errorf("could not list %s elections: %w", status, err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/<electionId>
func (u *URLAPI) electionSummaryHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	if resp.Summary, err = u.service.ElectionSummary(ctx.Request.Context(), electionID); err != nil {
		return fmt.Errorf("could not get summary of election %d: %w", electionID, err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/<electionId>/ranking
func (u *URLAPI) electionRankingHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	if resp.Ranking, err = u.service.Ranking(ctx.Request.Context(), electionID); err != nil {
		return fmt.Errorf("could not rank candidates of election %d: %w", electionID, err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/<electionId>/timeline
func (u *URLAPI) electionTimelineHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	if resp.Timeline, err = u.service.Timeline(ctx.Request.Context(), electionID); err != nil {
		return fmt.Errorf("could not get timeline of election %d: %w", electionID, err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/<electionId>/provinces
// electionProvincesHandler distributes the votes of a single election over the
// provinces
func (u *URLAPI) electionProvincesHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	if resp.Provinces, err = u.service.ProvinceStats(ctx.Request.Context(), []int{electionID}); err != nil {
		return fmt.Errorf("could not get provinces of election %d: %w", electionID, err)
	}
	resp.Missing = aggregation.MissingProvinces(resp.Provinces)
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/elections/<electionId>/voters/<socialId>
// hasVotedHandler checks whether a user cast a vote in the election
func (u *URLAPI) hasVotedHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	socialID := ctx.URLParam("socialId")
	if socialID == "" {
		return fmt.Errorf("missing socialId")
	}
	voted, err := u.service.HasVoted(ctx.Request.Context(), electionID, socialID)
	if err != nil {
		return err
	}
	resp.HasVoted = &voted
	return sendResponse(resp, ctx)
}
