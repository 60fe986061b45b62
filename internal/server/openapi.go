package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/geodrive/internal/leaderboard"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type challengePath struct {
	Type string `path:"type" enum:"flower,painttown" description:"Challenge type."`
}

type submitRequest struct {
	challengePath
	Authorization string `header:"Authorization" description:"Bearer sync token, required when the server has one configured."`
	leaderboard.Entry
}

type feedQuery struct {
	Type     string `query:"type" enum:"flower,painttown" description:"Limit the feed to one challenge type."`
	Encoding string `query:"encoding" enum:"json,msgpack" default:"json"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoDrive Leaderboards API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Remote leaderboard backend for GeoDrive challenges.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/locations
	getLocations, _ := r.NewOperationContext(http.MethodGet, "/api/locations")
	getLocations.SetSummary("List locations")
	getLocations.SetDescription("Returns the preset real-world locations.")
	getLocations.AddRespStructure(LocationsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getLocations)

	// GET /api/leaderboards/{type}
	getScores, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboards/{type}")
	getScores.SetSummary("Get leaderboard")
	getScores.SetDescription("Returns the top 10 entries, ordered by the challenge's ranking.")
	getScores.AddReqStructure(challengePath{})
	getScores.AddRespStructure(ScoresResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getScores.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getScores)

	// POST /api/leaderboards/{type}
	postScore, _ := r.NewOperationContext(http.MethodPost, "/api/leaderboards/{type}")
	postScore.SetSummary("Submit score")
	postScore.SetDescription("Stores a leaderboard entry. Entries missing the numbers their challenge needs are rejected.")
	postScore.AddReqStructure(submitRequest{})
	postScore.AddRespStructure(SubmitResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postScore.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postScore)

	// GET /api/leaderboards/{type}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboards/{type}/events")
	getEvents.SetSummary("SSE score stream")
	getEvents.SetDescription("Server-Sent Events stream of newly stored scores.")
	getEvents.AddReqStructure(challengePath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /ws/leaderboards
	getFeed, _ := r.NewOperationContext(http.MethodGet, "/ws/leaderboards")
	getFeed.SetSummary("WebSocket leaderboard feed")
	getFeed.SetDescription("Upgrades to a WebSocket that sends a snapshot per board, then every new score.")
	getFeed.AddReqStructure(feedQuery{})
	getFeed.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols))
	getFeed.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getFeed)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleSwaggerUI() http.HandlerFunc {
	return v5emb.New("GeoDrive Leaderboards API", "/openapi.json", "/docs").ServeHTTP
}
