package api

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// Register wires up all board routes on the provided Echo instance.
func Register(e *echo.Echo, store Store, router *Router, hub *Hub, logger *log.Logger) {
	e.GET("/ws", serveWS(router, hub, logger))
	e.GET("/api/tasks", getTasks(store))
	e.POST("/api/tasks/reset", resetTasks(store, router))
	e.GET("/healthz", healthz())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The board is open to any origin, same as the REST surface.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWS upgrades the connection, registers the session and pumps inbound
// frames through the router until the client goes away. The session is a
// broadcast target from the moment it registers, before any mutation it might
// trigger; the catch-up snapshot follows immediately after.
func serveWS(router *Router, hub *Hub, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			logger.Errorf("websocket upgrade: %v", err)
			return err
		}

		s := newSession(conn)
		conn.SetReadLimit(frameMaxSize)
		hub.Register(s)
		go s.writeLoop(hub.Unregister)
		router.SendSnapshot(s)

		defer hub.Unregister(s)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.WithField("session", s.id).Debugf("read failed: %v", err)
				}
				return nil
			}
			router.HandleFrame(s, raw)
		}
	}
}

func getTasks(store Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, store.List())
	}
}

// resetTasks clears the store and pushes the empty snapshot to everyone.
// Administrative surface, used for test isolation.
func resetTasks(store Store, router *Router) echo.HandlerFunc {
	return func(c echo.Context) error {
		store.Reset()
		router.BroadcastSnapshot()
		return c.JSON(http.StatusOK, map[string]string{"message": "Tasks reset successfully"})
	}
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}
