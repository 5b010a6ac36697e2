package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/educast/catalog/api/middleware"
	"github.com/educast/catalog/api/web"
	"github.com/educast/catalog/cache"
	"github.com/educast/catalog/core/auth"
	"github.com/educast/catalog/core/category"
	"github.com/educast/catalog/core/content"
	"github.com/educast/catalog/core/course"
	"github.com/educast/catalog/core/progress"
	"github.com/educast/catalog/core/user"
	"github.com/educast/catalog/media"
	"github.com/educast/catalog/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Session    *scs.SessionManager
	Cache      *cache.Cache
	Uploader   media.Uploader
	Limiter    *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	// Cors sits inside the chain before the limiter so throttled responses
	// still carry the CORS headers browsers need to read them.
	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter))
	}

	authen := auth.Authenticate(cfg.Session)
	instructor := auth.Instructor(cfg.Session)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users/current/courses", course.HandleListEnrolled(cfg.DB), authen)

	a.Handle(http.MethodGet, "/categories", category.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/categories", category.HandleCreate(cfg.DB), instructor)
	a.Handle(http.MethodGet, "/categories/{id}/courses", course.HandleListByCategory(cfg.DB))

	a.Handle(http.MethodGet, "/courses/owned", course.HandleListOwned(cfg.DB), instructor)
	a.Handle(http.MethodGet, "/courses/{id}/full", course.HandleShowFull(cfg.DB), authen)
	a.Handle(http.MethodPost, "/courses/{id}/enroll", course.HandleEnroll(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB, cfg.Cache))
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB, cfg.Uploader, cfg.Cache), instructor)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(cfg.DB, cfg.Uploader, cfg.Cache), instructor)
	a.Handle(http.MethodDelete, "/courses/{id}", course.HandleDelete(cfg.DB, cfg.Cache), instructor)

	a.Handle(http.MethodPost, "/sections", content.HandleCreateSection(cfg.DB), instructor)
	a.Handle(http.MethodPut, "/sections/{id}", content.HandleUpdateSection(cfg.DB), instructor)
	a.Handle(http.MethodDelete, "/sections/{id}", content.HandleDeleteSection(cfg.DB), instructor)

	a.Handle(http.MethodPost, "/subsections", content.HandleCreateSubSection(cfg.DB), instructor)
	a.Handle(http.MethodPut, "/subsections/{id}", content.HandleUpdateSubSection(cfg.DB), instructor)
	a.Handle(http.MethodDelete, "/subsections/{id}", content.HandleDeleteSubSection(cfg.DB), instructor)

	a.Handle(http.MethodPost, "/progress", progress.HandleMarkCompleted(cfg.DB), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
