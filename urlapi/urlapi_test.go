package urlapi

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/analytics/config"
	"go.vocdoni.io/dvote/httprouter"
)

func TestNewURLAPIValidation(t *testing.T) {
	c := qt.New(t)
	_, err := NewURLAPI(nil, &config.API{Route: "/"}, nil)
	c.Assert(err, qt.ErrorMatches, "httprouter is nil")

	var router httprouter.HTTProuter
	_, err = NewURLAPI(&router, nil, nil)
	c.Assert(err, qt.ErrorMatches, "api config is nil")
	for _, route := range []string{"", "api", "api/"} {
		_, err = NewURLAPI(&router, &config.API{Route: route}, nil)
		c.Assert(err, qt.ErrorMatches, "invalid base route.*", qt.Commentf("route %q", route))
	}
}
