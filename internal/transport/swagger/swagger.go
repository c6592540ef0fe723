package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"), // spec served at root by the router
	)
}
