package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.vocdoni.io/analytics/types"
	"go.vocdoni.io/dvote/httprouter"
)

func GetIntID(ctx *httprouter.HTTPContext, name string) (int, error) {
	id := ctx.URLParam(name)
	intID, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("could not parse urlParam %s: %v", name, err)
	}
	return intID, nil
}

func GetUUID(ctx *httprouter.HTTPContext, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.URLParam(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not parse urlParam %s: %v", name, err)
	}
	return id, nil
}

// ParseIntList parses a comma separated list of integers. An empty string
// yields an empty list.
func ParseIntList(s string) ([]int, error) {
	list := []int{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %v", field, err)
		}
		list = append(list, n)
	}
	return list, nil
}

// GetListOptions reads count, skip and order from the request query
func GetListOptions(ctx *httprouter.HTTPContext) (*types.ListOptions, error) {
	opts := &types.ListOptions{}
	query := ctx.Request.URL.Query()
	var err error
	if v := query.Get("count"); v != "" {
		if opts.Count, err = strconv.Atoi(v); err != nil || opts.Count < 0 {
			return nil, fmt.Errorf("invalid count %q", v)
		}
	}
	if v := query.Get("skip"); v != "" {
		if opts.Skip, err = strconv.Atoi(v); err != nil || opts.Skip < 0 {
			return nil, fmt.Errorf("invalid skip %q", v)
		}
	}
	switch v := strings.ToLower(query.Get("order")); v {
	case "", "asc", "desc":
		opts.Order = v
	default:
		return nil, fmt.Errorf("invalid order %q", v)
	}
	return opts, nil
}
