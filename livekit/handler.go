package livekit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler exposes the token and room operations over HTTP, the same
// shape a web frontend's connection-details endpoint would serve.
type Handler struct {
	tokens *TokenService
	rooms  *RoomService
	log    *slog.Logger
}

func NewHandler(tokens *TokenService, rooms *RoomService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tokens: tokens,
		rooms:  rooms,
		log:    logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/connection-details", h.ConnectionDetails)
	g.POST("/rooms", h.CreateRoom)
	g.DELETE("/rooms/:name", h.DeleteRoom)
}

type connectionDetailsRequest struct {
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

func (h *Handler) ConnectionDetails(c echo.Context) error {
	var req connectionDetailsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RoomName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "roomName is required")
	}

	details, err := h.tokens.ConnectionDetails(req.RoomName, req.Identity)
	if err != nil {
		h.log.Error("connection details failed", "room", req.RoomName, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue participant token")
	}

	return c.JSON(http.StatusOK, details)
}

type createRoomRequest struct {
	Name                string `json:"name"`
	MaxParticipants     uint32 `json:"maxParticipants"`
	EmptyTimeoutSeconds uint32 `json:"emptyTimeoutSeconds"`
}

type roomResponse struct {
	Name            string `json:"name"`
	SID             string `json:"sid"`
	MaxParticipants uint32 `json:"maxParticipants"`
}

func (h *Handler) CreateRoom(c echo.Context) error {
	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	room, err := h.rooms.CreateRoom(c.Request().Context(), req.Name, &RoomOptions{
		MaxParticipants: req.MaxParticipants,
		EmptyTimeout:    time.Duration(req.EmptyTimeoutSeconds) * time.Second,
	})
	if err != nil {
		h.log.Error("create room failed", "room", req.Name, "err", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to create room")
	}

	return c.JSON(http.StatusCreated, roomResponse{
		Name:            room.Name,
		SID:             room.Sid,
		MaxParticipants: room.MaxParticipants,
	})
}

func (h *Handler) DeleteRoom(c echo.Context) error {
	name := c.Param("name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "room name is required")
	}

	if err := h.rooms.DeleteRoom(c.Request().Context(), name); err != nil {
		h.log.Error("delete room failed", "room", name, "err", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to delete room")
	}

	return c.NoContent(http.StatusNoContent)
}
