package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"habit-planner/internal/auth"
	"habit-planner/internal/backup"
	"habit-planner/internal/model"
)

type itemsResponse struct {
	Item    *model.PlannerItem  `json:"item,omitempty"`
	Deleted *bool               `json:"deleted,omitempty"`
	Items   []model.PlannerItem `json:"items"`
}

type createItemRequest struct {
	TaskName string     `json:"task_name"`
	Category string     `json:"category"`
	Date     model.Date `json:"date"`
	Details  string     `json:"details"`
	XP       int        `json:"xp"`
}

type syncRequest struct {
	Message string `json:"message"`
}

type syncResponse struct {
	Path   string            `json:"path"`
	Result backup.SyncResult `json:"result"`
}

// requestFilter parses the list filter a mutation will re-render with.
// Mutations call it before writing.
func requestFilter(c echo.Context) (listFilter, error) {
	filter, warning := parseListFilter(c)
	if warning != "" {
		return filter, echo.NewHTTPError(http.StatusBadRequest, warning)
	}
	return filter, nil
}

// freshItems returns the list the caller re-renders after a mutation.
func (s *Server) freshItems(c echo.Context, filter listFilter) ([]model.PlannerItem, error) {
	items, err := s.planner.List(c.Request().Context(), filter.itemFilter(auth.UserFrom(c)))
	if err != nil {
		s.log.WithError(err).Error("list items")
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "could not load items")
	}
	if items == nil {
		items = []model.PlannerItem{}
	}
	return items, nil
}

func (s *Server) apiListItems(c echo.Context) error {
	filter, err := requestFilter(c)
	if err != nil {
		return err
	}
	items, err := s.freshItems(c, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) apiCreateItem(c echo.Context) error {
	filter, err := requestFilter(c)
	if err != nil {
		return err
	}
	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	name, err := model.CheckTaskName(req.TaskName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := s.planner.Create(c.Request().Context(), model.ItemInput{
		User:     auth.UserFrom(c),
		Date:     req.Date,
		Category: model.NormalizeCategory(req.Category),
		TaskName: name,
		Details:  model.OptionalText(req.Details),
		XP:       model.ClampXP(req.XP),
	})
	if err != nil {
		s.log.WithError(err).Error("create item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create item")
	}

	items, err := s.freshItems(c, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, itemsResponse{Item: item, Items: items})
}

func (s *Server) apiUpdateItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	filter, err := requestFilter(c)
	if err != nil {
		return err
	}
	var patch model.ItemPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if patch.TaskName != nil {
		name, err := model.CheckTaskName(*patch.TaskName)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		patch.TaskName = &name
	}
	if patch.Date != nil && patch.Date.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "date must not be empty")
	}
	if patch.Category != nil {
		category := model.NormalizeCategory(*patch.Category)
		patch.Category = &category
	}
	if patch.XP != nil {
		xp := model.ClampXP(*patch.XP)
		patch.XP = &xp
	}

	item, found, err := s.planner.Update(c.Request().Context(), id, patch)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("update item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update item")
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	}

	items, err := s.freshItems(c, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemsResponse{Item: item, Items: items})
}

func (s *Server) apiDeleteItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	filter, err := requestFilter(c)
	if err != nil {
		return err
	}
	found, err := s.planner.Delete(c.Request().Context(), id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("delete item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not delete item")
	}
	items, err := s.freshItems(c, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemsResponse{Deleted: &found, Items: items})
}

func (s *Server) apiSync(c echo.Context) error {
	var req syncRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		msg = syncMessage(time.Now())
	}
	path, res, err := s.backup.ExportAndSync(c.Request().Context(), msg)
	if err != nil {
		s.log.WithError(err).Error("export planner items")
		return echo.NewHTTPError(http.StatusInternalServerError, "export failed")
	}
	return c.JSON(http.StatusOK, syncResponse{Path: path, Result: res})
}
