package websocket

import (
	"context"
	"log"
	"sync"
)

// room — группа локальных клиентов, подписанных на один канал.
// Первый подписчик открывает fan-in из Redis, последний — закрывает его.
type room struct {
	clients map[*Client]bool
	cancel  context.CancelFunc
}

// Hub раздаёт события из Pub/Sub каналов подписанным WebSocket-клиентам
type Hub struct {
	provider PubSubProvider

	mu    sync.Mutex
	rooms map[string]*room

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub создает новый хаб на заданном Pub/Sub провайдере
func NewHub(provider PubSubProvider) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		provider: provider,
		rooms:    make(map[string]*room),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register добавляет клиента в комнату его канала и при необходимости
// открывает подписку на Pub/Sub
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[client.Channel]
	if !ok {
		subCtx, subCancel := context.WithCancel(h.ctx)
		msgCh, err := h.provider.Subscribe(subCtx, client.Channel)
		if err != nil {
			subCancel()
			return err
		}

		r = &room{
			clients: make(map[*Client]bool),
			cancel:  subCancel,
		}
		h.rooms[client.Channel] = r
		go h.fanIn(client.Channel, msgCh)
	}

	r.clients[client] = true
	log.Printf("[Hub] Клиент %s подписан на '%s' (подписчиков: %d)", client.ConnectionID, client.Channel, len(r.clients))
	return nil
}

// unregister убирает клиента из комнаты; пустая комната закрывает подписку
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[client.Channel]
	if !ok || !r.clients[client] {
		return
	}

	delete(r.clients, client)
	close(client.send)

	if len(r.clients) == 0 {
		r.cancel()
		delete(h.rooms, client.Channel)
		log.Printf("[Hub] Канал '%s' остался без подписчиков, подписка закрыта", client.Channel)
	}
}

// fanIn пересылает сообщения из Pub/Sub всем клиентам комнаты
func (h *Hub) fanIn(channel string, msgCh <-chan []byte) {
	for message := range msgCh {
		h.mu.Lock()
		r, ok := h.rooms[channel]
		if !ok {
			h.mu.Unlock()
			return
		}
		for client := range r.clients {
			select {
			case client.send <- message:
			default:
				// Буфер клиента переполнен — клиент отстаёт, сообщение отброшено
				log.Printf("[Hub] Буфер клиента %s переполнен, сообщение отброшено", client.ConnectionID)
			}
		}
		h.mu.Unlock()
	}
}

// SubscriberCount возвращает количество локальных подписчиков канала
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[channel]; ok {
		return len(r.clients)
	}
	return 0
}

// Close останавливает все подписки и отключает всех клиентов
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for channel, r := range h.rooms {
		r.cancel()
		for client := range r.clients {
			close(client.send)
		}
		delete(h.rooms, channel)
	}
	log.Println("[Hub] Хаб остановлен")
}
