package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router registers a group of routes.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter installs the page router first, since it sets up the
// principal middleware the API routes depend on.
func InstallRouter(app *fiber.App, deps Deps) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
