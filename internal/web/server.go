package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"habit-planner/internal/auth"
	"habit-planner/internal/backup"
	"habit-planner/internal/service"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Server is the planner web UI and JSON API.
type Server struct {
	echo    *echo.Echo
	addr    string
	planner *service.PlannerService
	backup  *backup.Service
	gate    *auth.Gate
	log     *log.Logger
}

type templateRenderer struct {
	tmpl *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

func NewServer(addr string, planner *service.PlannerService, backupSvc *backup.Service, gate *auth.Gate, lg *log.Logger) (*Server, error) {
	if lg == nil {
		lg = log.StandardLogger()
	}
	tmpl, err := template.New("planner").Funcs(template.FuncMap{
		"selected": func(a, b string) bool { return a == b },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{tmpl: tmpl}
	e.Use(middleware.Recover())
	e.Use(requestLogger(lg))

	s := &Server{
		echo:    e,
		addr:    addr,
		planner: planner,
		backup:  backupSvc,
		gate:    gate,
		log:     lg,
	}
	s.register()
	return s, nil
}

func (s *Server) register() {
	e := s.echo
	requireSession := s.gate.Middleware()

	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/login", s.loginPage)
	e.POST("/login", s.login)
	e.POST("/logout", s.logout)

	e.GET("/", s.index, requireSession)
	e.POST("/items", s.createItem, requireSession)
	e.POST("/items/:id/toggle", s.toggleItem, requireSession)
	e.POST("/items/:id/xp", s.setItemXP, requireSession)
	e.GET("/items/:id/edit", s.editPage, requireSession)
	e.POST("/items/:id", s.updateItem, requireSession)
	e.POST("/items/:id/delete", s.deleteItem, requireSession)
	e.POST("/sync", s.sync, requireSession)

	api := e.Group("/api", requireSession)
	api.GET("/items", s.apiListItems)
	api.POST("/items", s.apiCreateItem)
	api.PATCH("/items/:id", s.apiUpdateItem)
	api.DELETE("/items/:id", s.apiDeleteItem)
	api.POST("/sync", s.apiSync)
}

func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.addr).Info("planner web UI listening")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func requestLogger(lg *log.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := lg.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.Round(time.Microsecond).String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Debug("request")
			return nil
		},
	})
}
