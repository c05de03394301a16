package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"habit-planner/internal/auth"
	"habit-planner/internal/backup"
	"habit-planner/internal/model"
)

// pageState is what a mutation hands to renderIndex.
type pageState struct {
	status  int
	flash   string
	warning string
	form    *itemForm
}

// renderIndex queries the fresh list for the current filter and renders the page.
func (s *Server) renderIndex(c echo.Context, st pageState) error {
	ctx := c.Request().Context()
	user := auth.UserFrom(c)

	filter, filterWarning := parseListFilter(c)
	if st.warning == "" {
		st.warning = filterWarning
	}

	items, err := s.planner.List(ctx, filter.itemFilter(user))
	if err != nil {
		s.log.WithError(err).Error("list items")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load items")
	}
	summary, err := s.planner.Summary(ctx, user)
	if err != nil {
		s.log.WithError(err).Error("summarize items")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load summary")
	}

	views, hidden := buildItemViews(items, filter)
	form := newItemForm()
	if st.form != nil {
		form = *st.form
	}
	if st.status == 0 {
		st.status = http.StatusOK
	}

	return c.Render(st.status, "index.html", indexView{
		DisplayName:      s.gate.DisplayName(),
		Categories:       model.Categories,
		FilterCategories: append([]string{model.CategoryAll}, model.Categories...),
		Filter:           filter,
		Items:            views,
		Hidden:           hidden,
		Summary:          summary,
		Form:             form,
		Flash:            st.flash,
		Warning:          st.warning,
		MinXP:            model.MinXP,
		MaxXP:            model.MaxXP,
		HomeURL:          filter.withQuery("/"),
		CreateURL:        filter.withQuery("/items"),
		SyncURL:          filter.withQuery("/sync"),
	})
}

func (s *Server) index(c echo.Context) error {
	return s.renderIndex(c, pageState{})
}

func (s *Server) createItem(c echo.Context) error {
	form, date, warning := parseItemForm(c)
	if warning != "" {
		return s.renderIndex(c, pageState{status: http.StatusUnprocessableEntity, warning: warning, form: &form})
	}

	item, err := s.planner.Create(c.Request().Context(), model.ItemInput{
		User:     auth.UserFrom(c),
		Date:     date,
		Category: form.Category,
		TaskName: form.TaskName,
		Details:  model.OptionalText(form.Details),
		XP:       form.XP,
	})
	if err != nil {
		s.log.WithError(err).Error("create item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create item")
	}
	s.log.WithField("id", item.ID).Info("item created")
	return s.renderIndex(c, pageState{flash: "Added: " + item.TaskName})
}

func (s *Server) toggleItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var item *model.PlannerItem
	var found bool
	if raw := c.FormValue("done"); raw != "" {
		done, perr := strconv.ParseBool(raw)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid done value")
		}
		item, found, err = s.planner.Update(ctx, id, model.ItemPatch{IsDone: &done})
	} else {
		item, found, err = s.planner.ToggleDone(ctx, id)
	}
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("toggle item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update item")
	}
	if !found {
		return s.renderIndex(c, pageState{status: http.StatusNotFound, warning: "Item not found."})
	}
	state := "open"
	if item.IsDone {
		state = "done"
	}
	return s.renderIndex(c, pageState{flash: fmt.Sprintf("Marked %q as %s", item.TaskName, state)})
}

func (s *Server) setItemXP(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	xp, err := strconv.Atoi(strings.TrimSpace(c.FormValue("xp")))
	if err != nil {
		return s.renderIndex(c, pageState{status: http.StatusUnprocessableEntity, warning: "XP must be a whole number."})
	}
	xp = model.ClampXP(xp)

	item, found, err := s.planner.Update(c.Request().Context(), id, model.ItemPatch{XP: &xp})
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("update xp")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update item")
	}
	if !found {
		return s.renderIndex(c, pageState{status: http.StatusNotFound, warning: "Item not found."})
	}
	return s.renderIndex(c, pageState{flash: fmt.Sprintf("%s now worth %d XP", item.TaskName, item.XP)})
}

func (s *Server) editPage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	item, found, err := s.planner.Get(c.Request().Context(), id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("load item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load item")
	}
	if !found {
		return s.renderIndex(c, pageState{status: http.StatusNotFound, warning: "Item not found."})
	}
	return s.renderEdit(c, http.StatusOK, *item, formFromItem(*item), "")
}

func (s *Server) renderEdit(c echo.Context, status int, item model.PlannerItem, form itemForm, warning string) error {
	filter, _ := parseListFilter(c)
	return c.Render(status, "edit.html", editView{
		DisplayName: s.gate.DisplayName(),
		Categories:  model.Categories,
		Item:        item,
		Form:        form,
		Warning:     warning,
		MinXP:       model.MinXP,
		MaxXP:       model.MaxXP,
		UpdateURL:   filter.withQuery(fmt.Sprintf("/items/%d", item.ID)),
		CancelURL:   filter.withQuery("/"),
	})
}

func (s *Server) updateItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	form, date, warning := parseItemForm(c)
	if warning != "" {
		item, found, err := s.planner.Get(ctx, id)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "could not load item")
		}
		if !found {
			return s.renderIndex(c, pageState{status: http.StatusNotFound, warning: "Item not found."})
		}
		return s.renderEdit(c, http.StatusUnprocessableEntity, *item, form, warning)
	}

	details := strings.TrimSpace(form.Details)
	patch := model.ItemPatch{
		TaskName: &form.TaskName,
		Category: &form.Category,
		Date:     &date,
		Details:  &details,
		XP:       &form.XP,
	}
	_, found, err := s.planner.Update(ctx, id, patch)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("update item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not update item")
	}
	if !found {
		return s.renderIndex(c, pageState{status: http.StatusNotFound, warning: "Item not found."})
	}
	return s.renderIndex(c, pageState{flash: "Updated"})
}

func (s *Server) deleteItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	found, err := s.planner.Delete(c.Request().Context(), id)
	if err != nil {
		s.log.WithError(err).WithField("id", id).Error("delete item")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not delete item")
	}
	if !found {
		return s.renderIndex(c, pageState{warning: "Item was already deleted."})
	}
	s.log.WithField("id", id).Info("item deleted")
	return s.renderIndex(c, pageState{flash: "Deleted"})
}

func syncMessage(now time.Time) string {
	return "Sync planner: " + now.UTC().Format(time.RFC3339)
}

func describeSync(path string, res backup.SyncResult) string {
	msg := fmt.Sprintf("Exported to %s", path)
	switch {
	case res.Pushed:
		msg += " and pushed to origin."
	case res.Committed:
		msg += " and committed locally."
	default:
		msg += "."
	}
	if res.Reason != "" {
		msg += " (" + res.Reason + ")"
	}
	return msg
}

func (s *Server) sync(c echo.Context) error {
	path, res, err := s.backup.ExportAndSync(c.Request().Context(), syncMessage(time.Now()))
	if err != nil {
		s.log.WithError(err).Error("export planner items")
		return s.renderIndex(c, pageState{status: http.StatusInternalServerError, warning: "Export failed: " + err.Error()})
	}
	return s.renderIndex(c, pageState{flash: describeSync(path, res)})
}

func (s *Server) loginPage(c echo.Context) error {
	if s.gate.IsAuthenticated(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.Render(http.StatusOK, "login.html", loginView{})
}

func (s *Server) login(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	if !s.gate.CheckCredentials(username, c.FormValue("password")) {
		s.log.WithField("username", username).Warn("failed login")
		return c.Render(http.StatusUnauthorized, "login.html", loginView{Error: "Username/password incorrect", Username: username})
	}
	cookie, err := s.gate.IssueCookie(s.gate.Username())
	if err != nil {
		s.log.WithError(err).Error("issue session")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not start session")
	}
	c.SetCookie(cookie)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(c echo.Context) error {
	c.SetCookie(s.gate.ClearCookie())
	return c.Redirect(http.StatusSeeOther, "/login")
}
