package app

import (
	"github.com/vancomm/minefield/internal/handlers"
	"github.com/vancomm/minefield/internal/repository"
)

func (a *App) loadRoutes() {
	field := handlers.NewFieldHandler(
		a.logger, repository.NewRepository(a.db), a.jwt, a.ws, a.game,
	)

	a.router.HandleFunc("POST /field", field.NewField)
	a.router.HandleFunc("GET /field", field.List)
	a.router.HandleFunc("GET /field/{id}", field.Fetch)
	a.router.HandleFunc("POST /field/{id}/move", field.Move)
	a.router.HandleFunc("GET /field/{id}/connect", field.ConnectWS)
}
