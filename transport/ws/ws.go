// Package ws adapts a gorilla/websocket connection to datachannel.Transport,
// the way novacoin's cmd/gateway bridged the same library to its TCP p2p
// server. Each chunk is sent as one binary WebSocket message.
package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"novapeer/datachannel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Transport adapts a *websocket.Conn to datachannel.Transport.
type Transport struct {
	conn *websocket.Conn

	mu       sync.Mutex
	state    datachannel.ReadyState
	receiver func([]byte)
	once     sync.Once
}

// Dial opens a client-side WebSocket connection to url and starts its read
// loop.
func Dial(url string) (*Transport, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return newTransport(conn), nil
}

// Upgrade promotes an inbound HTTP request to a server-side WebSocket
// connection and starts its read loop, mirroring the upgrader novacoin's
// gateway command used.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Transport, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newTransport(conn), nil
}

func newTransport(conn *websocket.Conn) *Transport {
	t := &Transport{conn: conn, state: datachannel.Open}
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			t.Close()
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		t.mu.Lock()
		recv := t.receiver
		t.mu.Unlock()
		if recv != nil {
			recv(data)
		}
	}
}

// SetReceiver implements datachannel.Transport.
func (t *Transport) SetReceiver(fn func([]byte)) {
	t.mu.Lock()
	t.receiver = fn
	t.mu.Unlock()
}

// SendChunk implements datachannel.Transport.
func (t *Transport) SendChunk(chunk []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == datachannel.Closed {
		return errors.New("ws: send on closed transport")
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, chunk)
}

// ReadyState implements datachannel.Transport.
func (t *Transport) ReadyState() datachannel.ReadyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Close implements datachannel.Transport.
func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		t.mu.Lock()
		t.state = datachannel.Closed
		t.mu.Unlock()
		err = t.conn.Close()
	})
	return err
}
