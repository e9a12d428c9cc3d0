package internal

import (
	"followtrack/internal/controllers"
	"followtrack/internal/providers"
	"net/http"
)

func InitRoutes(apiController *controllers.ApiController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/refresh", http.HandlerFunc(apiController.Refresh))
	routers.Get("/snapshot", http.HandlerFunc(apiController.GetSnapshot))
	routers.Get("/history", http.HandlerFunc(apiController.GetHistory))
	routers.Get("/accounts", http.HandlerFunc(apiController.GetAccounts))
	routers.Get("/session", http.HandlerFunc(apiController.GetSession))
	routers.Post("/session", http.HandlerFunc(apiController.SaveSession))
	routers.Post("/logout", http.HandlerFunc(apiController.Logout))
	return routers
}
