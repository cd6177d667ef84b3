package notify

import (
	"encoding/json"
	"log"
	"sync"
)

// Kinds de resultado que consumen las pantallas de confirmación.
const (
	KindOK      = "ok"
	KindRechazo = "rechazo"
	KindError   = "error"
)

// Outcome es lo único que el núcleo publica hacia la superficie de
// notificaciones: un tipo y un mensaje legible.
type Outcome struct {
	Kind    string `json:"kind"`
	Mensaje string `json:"mensaje"`
}

// Hub reparte outcomes por usuario a los streams SSE abiertos. Si un
// usuario no tiene stream abierto el outcome se descarta: la superficie
// es solo presentación, nunca fuente de verdad.
type Hub struct {
	mu   sync.Mutex
	subs map[int][]chan string
}

func NewHub() *Hub {
	return &Hub{subs: map[int][]chan string{}}
}

// Publish envía el outcome (serializado a JSON) a todos los streams del usuario.
func (h *Hub) Publish(userID int, o Outcome) {
	b, err := json.Marshal(o)
	if err != nil {
		log.Printf("[NOTIFY] marshal outcome failed: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[userID] {
		select {
		case ch <- string(b):
		default:
			// stream lento: se pierde este outcome, no bloqueamos la transición
		}
	}
}

// Subscribe abre un canal de outcomes para el usuario; cancel lo cierra y lo retira.
func (h *Hub) Subscribe(userID int) (<-chan string, func()) {
	ch := make(chan string, 16)
	h.mu.Lock()
	h.subs[userID] = append(h.subs[userID], ch)
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[userID]
		for i, c := range list {
			if c == ch {
				h.subs[userID] = append(list[:i], list[i+1:]...)
				close(ch)
				break
			}
		}
	}
	return ch, cancel
}
