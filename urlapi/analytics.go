package urlapi

import (
	"fmt"

	"go.vocdoni.io/analytics/aggregation"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/analytics/util"
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
)

func (u *URLAPI) enableAnalyticsHandlers() error {
	if err := u.registerMethod(
		"/pub/provinces",
		"GET",
		false,
		u.provincesHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/demographics",
		"GET",
		false,
		u.demographicsHandler,
	); err != nil {
		return err
	}
	if err := u.registerMethod(
		"/pub/overview",
		"GET",
		false,
		u.overviewHandler,
	); err != nil {
		return err
	}
	return nil
}

func (u *URLAPI) enablePrivateHandlers() error {
	if err := u.registerMethod(
		"/priv/elections/{electionId}/turnout",
		"GET",
		true,
		u.turnoutHandler,
	); err != nil {
		return err
	}
	return nil
}

// GET https://server/v1/pub/provinces
// GET https://server/v1/pub/provinces?elections=1,2
// provincesHandler distributes the combined votes of several elections (all of
// them by default) over the provinces
func (u *URLAPI) provincesHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var ids []int
	if ids, err = util.ParseIntList(ctx.Request.URL.Query().Get("elections")); err != nil {
		return err
	}
	if resp.Provinces, err = u.service.ProvinceStats(ctx.Request.Context(), ids); err != nil {
		return fmt.Errorf("could not get province stats: %w", err)
	}
	resp.Missing = aggregation.MissingProvinces(resp.Provinces)
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/demographics
func (u *URLAPI) demographicsHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	if resp.AgeBands, err = u.service.Demographics(ctx.Request.Context()); err != nil {
		return fmt.Errorf("could not get demographics: %w", err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/pub/overview
func (u *URLAPI) overviewHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	if resp.Overview, err = u.service.Overview(ctx.Request.Context()); err != nil {
		return fmt.Errorf("could not get overview: %w", err)
	}
	return sendResponse(resp, ctx)
}

// GET https://server/v1/priv/elections/<electionId>/turnout
// turnoutHandler measures the turnout of an election checking every
// registered user against the backend
func (u *URLAPI) turnoutHandler(msg *bearerstdapi.BearerStandardAPIdata,
	ctx *httprouter.HTTPContext) error {
	var err error
	var resp types.APIResponse
	var electionID int
	if electionID, err = util.GetIntID(ctx, "electionId"); err != nil {
		return err
	}
	if resp.Turnout, err = u.service.Turnout(ctx.Request.Context(), electionID); err != nil {
		return fmt.Errorf("could not measure turnout of election %d: %w", electionID, err)
	}
	return sendResponse(resp, ctx)
}
