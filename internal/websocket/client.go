package websocket

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Время, которое разрешено писать сообщение клиенту
	writeWait = 10 * time.Second

	// Время ожидания pong-ответа от клиента
	pongWait = 30 * time.Second

	// Периодичность отправки ping-сообщений клиенту
	pingPeriod = (pongWait * 9) / 10

	// Входящие сообщения от подписчиков не ожидаются, лимит минимальный
	maxMessageSize = 512

	// Размер буфера канала отправки сообщений клиенту
	clientBufferSize = 128
)

// Client является посредником между WebSocket-соединением и хабом.
// Подписчики живых результатов только читают: входящие сообщения,
// кроме служебных, игнорируются.
type Client struct {
	// Уникальный ID соединения
	ConnectionID string

	// Канал, на который подписан клиент
	Channel string

	hub  *Hub
	conn *websocket.Conn

	// Буферизованный канал для исходящих сообщений
	send chan []byte
}

// NewClient создает нового клиента для канала
func NewClient(hub *Hub, conn *websocket.Conn, channel string) *Client {
	return &Client{
		ConnectionID: uuid.NewString(),
		Channel:      channel,
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, clientBufferSize),
	}
}

// StartPumps запускает горутины чтения и записи клиента
func (c *Client) StartPumps() {
	go c.writePump()
	go c.readPump()
}

// readPump читает соединение до его закрытия. Содержимое входящих
// сообщений не используется, но чтение обязательно: только оно
// обрабатывает control-фреймы и обнаруживает отключение.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Соединение %s закрыто с ошибкой: %v", c.ConnectionID, err)
			}
			return
		}
	}
}

// writePump пишет сообщения из канала send в соединение и поддерживает
// его живым периодическими ping-фреймами
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Хаб закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
