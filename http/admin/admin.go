// Package admin serves runtime statistics and build information over HTTP.
package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zircuit-labs/zkr-go-taskbridge/http/echotask"
	"github.com/zircuit-labs/zkr-go-taskbridge/log/identity"
	"github.com/zircuit-labs/zkr-go-taskbridge/substrate"
	"github.com/zircuit-labs/zkr-go-taskbridge/version"
)

// StatsSource is implemented by substrate.Runtime.
type StatsSource interface {
	Stats() substrate.Snapshot
}

// TaskLister is implemented by task.Manager.
type TaskLister interface {
	Running() []string
}

// Stats is the body of GET /stats.
type Stats struct {
	Service  string             `json:"service"`
	Instance string             `json:"instance"`
	Runtime  substrate.Snapshot `json:"runtime"`
	Tasks    []string           `json:"tasks"`
}

// Routes implements echotask.RouteRegistration.
type Routes struct {
	stats StatsSource
	tasks TaskLister
}

// NewRoutes creates the admin routes. tasks may be nil.
func NewRoutes(stats StatsSource, tasks TaskLister) *Routes {
	return &Routes{stats: stats, tasks: tasks}
}

// RegisterRoutes implements echotask.RouteRegistration.
func (r *Routes) RegisterRoutes(reg echotask.RouteRegistrant) error {
	reg.GET("/stats", r.getStats)
	reg.GET("/version", getVersion)
	return nil
}

func (r *Routes) getStats(c echo.Context) error {
	name, id := identity.WhoAmI()
	resp := Stats{
		Service:  name,
		Instance: id,
		Runtime:  r.stats.Stats(),
		Tasks:    []string{},
	}
	if r.tasks != nil {
		resp.Tasks = r.tasks.Running()
	}
	return c.JSON(http.StatusOK, resp)
}

func getVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Info)
}
