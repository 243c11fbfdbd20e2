package handlers

import (
	"net/http"

	"deutschdrill/internal/security"
)

// Router bundles the handlers that make up the JSON API
type Router struct {
	Middleware   *Middleware
	Auth         *AuthHandler
	Drill        *DrillHandler
	Tests        *TestHandler
	Progress     *ProgressHandler
	Admin        *AdminHandler
	LoginLimiter *security.RateLimiter
	Health       http.HandlerFunc
}

// Handler registers every route and wraps the mux in request logging
func (rt *Router) Handler() http.Handler {
	m := rt.Middleware
	auth := func(h http.HandlerFunc) http.HandlerFunc { return m.RequireAuth(m.CSRFProtect(h)) }

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.Health)

	mux.HandleFunc("POST /api/login", m.RateLimit(rt.LoginLimiter, rt.Auth.Login))
	mux.HandleFunc("POST /api/token", m.RateLimit(rt.LoginLimiter, rt.Auth.Token))
	mux.HandleFunc("POST /api/logout", auth(rt.Auth.Logout))

	mux.HandleFunc("GET /api/drill/{kind}/next", auth(rt.Drill.Next))
	mux.HandleFunc("POST /api/drill/words/{id}/check", auth(rt.Drill.CheckWord))
	mux.HandleFunc("POST /api/drill/verbs/{id}/check", auth(rt.Drill.CheckVerb))

	mux.HandleFunc("POST /api/tests", auth(rt.Tests.Start))
	mux.HandleFunc("GET /api/tests/{id}/question", auth(rt.Tests.Question))
	mux.HandleFunc("POST /api/tests/{id}/answer", auth(rt.Tests.Answer))
	mux.HandleFunc("POST /api/tests/{id}/finish", auth(rt.Tests.Finish))
	mux.HandleFunc("DELETE /api/tests/mock", auth(rt.Progress.ClearMockTests))

	mux.HandleFunc("GET /api/progress", auth(rt.Progress.Overview))

	mux.HandleFunc("POST /api/admin/import/{kind}", auth(m.RequireAdmin(rt.Admin.Import)))
	mux.HandleFunc("GET /api/admin/export/{kind}", auth(m.RequireAdmin(rt.Admin.Export)))

	return Logging(m.logger, mux)
}
