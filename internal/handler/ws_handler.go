package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/quizgen-api/internal/service"
	"github.com/yourusername/quizgen-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket-подписки на живые результаты викторин
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket-соединений
func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Разрешаем подключения с любого origin; контроль доступа
			// остаётся на CORS и внешнем периметре
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// LiveResults подписывает клиента на поток новых результатов викторины
// GET /ws/quizzes/:id/results
func (h *WSHandler) LiveResults(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, service.SubmissionChannel(quizID))
	if err := h.hub.Register(client); err != nil {
		log.Printf("[WSHandler] Ошибка подписки на результаты викторины #%d: %v", quizID, err)
		conn.Close()
		return
	}

	client.StartPumps()
}
