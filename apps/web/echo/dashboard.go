package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/virtualcampus/campus/core"
	"github.com/virtualcampus/campus/core/session"
	backendsvc "github.com/virtualcampus/campus/services/backend"
)

// Dashboard records, fetched pass-through from the records API. This layer
// attaches the session's access token and renders what comes back; ownership
// and visibility are the backend's rules.
type (
	Course struct {
		ID           string    `json:"id"`
		Title        string    `json:"title"`
		Description  string    `json:"description,omitempty"`
		InstructorID string    `json:"instructor_id"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Assignment struct {
		ID        string    `json:"id"`
		CourseID  string    `json:"course_id"`
		Title     string    `json:"title"`
		DueAt     time.Time `json:"due_at"`
		CreatedAt time.Time `json:"created_at"`
	}

	Discussion struct {
		ID        string    `json:"id"`
		CourseID  string    `json:"course_id"`
		AuthorID  string    `json:"author_id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"created_at"`
	}

	Resource struct {
		ID        string    `json:"id"`
		CourseID  string    `json:"course_id"`
		Title     string    `json:"title"`
		URL       string    `json:"url"`
		CreatedAt time.Time `json:"created_at"`
	}
)

const listLimit = 50

type dashboardApi struct {
	store   *session.Store
	backend *backendsvc.Client
	logger  core.Logger
}

func registerDashboardAPI(e *echo.Echo, opts *Options) {
	api := dashboardApi{
		store:   opts.Store,
		backend: opts.Backend,
		logger:  opts.Logger,
	}

	g := e.Group(dashboardPath, requireAuth(opts.Store))
	g.GET("", api.home)
	g.GET("/courses", api.courses)
	g.GET("/assignments", api.assignments)
	g.GET("/discussions", api.discussions)
	g.GET("/resources", api.resources)
}

// Handlers

func (api *dashboardApi) home(ctx echo.Context) error {
	snap := api.store.Snapshot()
	resp := echo.Map{"email": snap.Session.Identity.Email}
	if snap.Profile != nil {
		resp["name"] = snap.Profile.FullName()
		resp["role"] = snap.Profile.Role
	}
	return ctx.JSON(http.StatusOK, resp)
}

// list fetches up to listLimit rows from table, newest first. A fetch failure
// degrades to an empty listing; the dashboard never renders an error banner for
// record content.
func (api *dashboardApi) list(ctx echo.Context, table string, dest interface{}) error {
	err := api.backend.From(table).
		Select("*").
		Order("created_at", false /* ascending */).
		Limit(listLimit).
		Get(ctx.Request().Context(), dest)
	if err != nil {
		api.logger.Warn("record listing failed", errors.Wrapf(err, "listing %s", table))
	}
	return nil
}

func (api *dashboardApi) courses(ctx echo.Context) error {
	records := []Course{}
	if err := api.list(ctx, "courses", &records); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *dashboardApi) assignments(ctx echo.Context) error {
	records := []Assignment{}
	if err := api.list(ctx, "assignments", &records); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *dashboardApi) discussions(ctx echo.Context) error {
	records := []Discussion{}
	if err := api.list(ctx, "discussions", &records); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *dashboardApi) resources(ctx echo.Context) error {
	records := []Resource{}
	if err := api.list(ctx, "resources", &records); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}
