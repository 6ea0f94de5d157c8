package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/nexora-club/membership-backend/live"
	"github.com/nexora-club/membership-backend/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub         *live.Hub
	teamService services.TeamService
}

func NewWebSocketHandler(hub *live.Hub, teamService services.TeamService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		teamService: teamService,
	}
}

// ServeTeamFeed upgrades the connection and subscribes it to the team's
// event room. The team must exist.
func (h *WebSocketHandler) ServeTeamFeed(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.teamService.GetTeamDetail(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		slog.Error("websocket upgrade failed", slog.Int("team_id", teamID), slog.Any("error", err))
		return
	}

	h.hub.NewClient(conn, teamID)
}
