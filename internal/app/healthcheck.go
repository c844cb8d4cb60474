package app

import (
	"net/http"
)

type systemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Backend     string `json:"backend"`
}

type healthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo systemInfo `json:"systemInfo"`
}

func (app *Application) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthcheckResponse{
		Status: "UP",
		SystemInfo: systemInfo{
			Version:     version,
			Environment: app.config.Env,
			Backend:     app.config.Backend.URL,
		},
	}

	app.writeJSON(w, http.StatusOK, resp, nil)
}
