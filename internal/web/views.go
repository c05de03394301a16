package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"habit-planner/internal/model"
)

const detailsPreviewLen = 80

// listFilter is the list state carried in the query string of every page and
// form action, so a mutation can re-render the same view.
type listFilter struct {
	Category string
	Date     string
	Search   string
	HideDone bool

	date *model.Date
}

func parseListFilter(c echo.Context) (listFilter, string) {
	f := listFilter{
		Category: strings.TrimSpace(c.QueryParam("category")),
		Date:     strings.TrimSpace(c.QueryParam("date")),
		Search:   c.QueryParam("q"),
		HideDone: c.QueryParam("hide_done") == "1",
	}
	if f.Category == "" {
		f.Category = model.CategoryAll
	}
	if f.Date == "" {
		return f, ""
	}
	d, err := model.ParseDate(f.Date)
	if err != nil {
		f.Date = ""
		return f, "Ignoring date filter: " + err.Error()
	}
	f.date = &d
	return f, ""
}

func (f listFilter) itemFilter(user string) model.ItemFilter {
	return model.ItemFilter{User: user, Category: f.Category, Date: f.date, Search: f.Search}
}

func (f listFilter) query() string {
	v := url.Values{}
	if f.Category != "" && f.Category != model.CategoryAll {
		v.Set("category", f.Category)
	}
	if f.Date != "" {
		v.Set("date", f.Date)
	}
	if f.Search != "" {
		v.Set("q", f.Search)
	}
	if f.HideDone {
		v.Set("hide_done", "1")
	}
	return v.Encode()
}

// withQuery appends the filter state to path.
func (f listFilter) withQuery(path string) template.URL {
	if q := f.query(); q != "" {
		return template.URL(path + "?" + q)
	}
	return template.URL(path)
}

type itemView struct {
	model.PlannerItem
	ShortDetails string
	ToggleURL    template.URL
	XPURL        template.URL
	EditURL      template.URL
	UpdateURL    template.URL
	DeleteURL    template.URL
}

type itemForm struct {
	TaskName string
	Category string
	Date     string
	XP       int
	Details  string
}

func newItemForm() itemForm {
	return itemForm{Category: model.CategoryLearning, Date: model.Today().String(), XP: 10}
}

func formFromItem(item model.PlannerItem) itemForm {
	return itemForm{
		TaskName: item.TaskName,
		Category: model.NormalizeCategory(item.Category),
		Date:     item.Date.String(),
		XP:       item.XP,
		Details:  item.DetailsText(),
	}
}

type indexView struct {
	DisplayName      string
	Categories       []string
	FilterCategories []string
	Filter           listFilter
	Items            []itemView
	Hidden           int
	Summary          model.Summary
	Form             itemForm
	Flash            string
	Warning          string
	MinXP            int
	MaxXP            int
	HomeURL          template.URL
	CreateURL        template.URL
	SyncURL          template.URL
}

type editView struct {
	DisplayName string
	Categories  []string
	Item        model.PlannerItem
	Form        itemForm
	Warning     string
	MinXP       int
	MaxXP       int
	UpdateURL   template.URL
	CancelURL   template.URL
}

type loginView struct {
	Error    string
	Username string
}

func buildItemViews(items []model.PlannerItem, f listFilter) ([]itemView, int) {
	views := make([]itemView, 0, len(items))
	hidden := 0
	for _, it := range items {
		if f.HideDone && it.IsDone {
			hidden++
			continue
		}
		base := fmt.Sprintf("/items/%d", it.ID)
		views = append(views, itemView{
			PlannerItem:  it,
			ShortDetails: shorten(it.DetailsText(), detailsPreviewLen),
			ToggleURL:    f.withQuery(base + "/toggle"),
			XPURL:        f.withQuery(base + "/xp"),
			EditURL:      f.withQuery(base + "/edit"),
			UpdateURL:    f.withQuery(base),
			DeleteURL:    f.withQuery(base + "/delete"),
		})
	}
	return views, hidden
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// parseItemForm reads and validates the create/edit form fields.
func parseItemForm(c echo.Context) (itemForm, model.Date, string) {
	form := itemForm{
		TaskName: c.FormValue("task_name"),
		Category: model.NormalizeCategory(c.FormValue("item_category")),
		Date:     strings.TrimSpace(c.FormValue("item_date")),
		Details:  c.FormValue("details"),
	}

	xpRaw := strings.TrimSpace(c.FormValue("xp"))
	if xpRaw != "" {
		xp, err := strconv.Atoi(xpRaw)
		if err != nil {
			return form, model.Date{}, "XP must be a whole number."
		}
		form.XP = model.ClampXP(xp)
	}

	name, err := model.CheckTaskName(form.TaskName)
	if err != nil {
		return form, model.Date{}, "Please provide a task name."
	}
	form.TaskName = name

	if form.Date == "" {
		return form, model.Today(), ""
	}
	date, err := model.ParseDate(form.Date)
	if err != nil {
		return form, model.Date{}, "Please provide a valid date (YYYY-MM-DD)."
	}
	return form, date, ""
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	return uint(id), nil
}
