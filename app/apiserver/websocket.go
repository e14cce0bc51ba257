package apiserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/app/apiserver/apimodel"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/infrastructure/eventbus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	subscriptionBufferSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type websocketConnection struct {
	ws           *websocket.Conn
	subscription *eventbus.Subscription
	closeOnce    sync.Once
}

func (c *websocketConnection) close() {
	c.closeOnce.Do(func() {
		c.subscription.Close()
		c.ws.Close()
	})
}

// parseEventTypes parses a comma separated list of event type names
func parseEventTypes(typesParam string) ([]externalapi.EventType, error) {
	if typesParam == "" {
		return nil, nil
	}
	var eventTypes []externalapi.EventType
	for _, name := range strings.Split(typesParam, ",") {
		found := false
		for eventType := externalapi.EventTypeValidatorEnable; eventType <= externalapi.EventTypeValidatorChanged; eventType++ {
			if eventType.String() == strings.TrimSpace(name) {
				eventTypes = append(eventTypes, eventType)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Errorf("unknown event type %s", name)
		}
	}
	return eventTypes, nil
}

// handleWebsocket upgrades the request and streams consensus events to
// the client. The optional types query parameter restricts the feed to
// the given event types.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	eventTypes, err := parseEventTypes(r.URL.Query().Get("types"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		sendErr(w, newHandlerError(http.StatusUnprocessableEntity, err.Error()))
		return
	}

	// The subscription precedes the handshake so that a connected client
	// sees every event published after it connected
	subscription := s.eventBus.Subscribe(subscriptionBufferSize, eventTypes...)
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		subscription.Close()
		log.Debugf("Failed to upgrade to websocket: %s", err)
		return
	}

	connection := &websocketConnection{
		ws:           ws,
		subscription: subscription,
	}
	s.connectionsLock.Lock()
	s.connections[connection] = struct{}{}
	s.connectionsLock.Unlock()
	log.Debugf("Websocket client %s connected", r.RemoteAddr)

	spawn("apiserver.writePump", func() {
		s.writePump(connection)
	})
	spawn("apiserver.readPump", func() {
		s.readPump(connection)
	})
}

func (s *Server) removeConnection(connection *websocketConnection) {
	s.connectionsLock.Lock()
	delete(s.connections, connection)
	s.connectionsLock.Unlock()
	connection.close()
}

func (s *Server) writePump(connection *websocketConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.removeConnection(connection)
	}()

	for {
		select {
		case event, ok := <-connection.subscription.Events():
			connection.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				connection.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			message, err := json.Marshal(apimodel.DomainEventToEvent(event))
			if err != nil {
				log.Errorf("Could not serialize event %s: %s", event, err)
				continue
			}
			err = connection.ws.WriteMessage(websocket.TextMessage, message)
			if err != nil {
				return
			}

		case <-ticker.C:
			connection.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := connection.ws.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and detects disconnection
func (s *Server) readPump(connection *websocketConnection) {
	defer s.removeConnection(connection)

	connection.ws.SetReadLimit(maxMessageSize)
	connection.ws.SetReadDeadline(time.Now().Add(pongWait))
	connection.ws.SetPongHandler(func(string) error {
		connection.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := connection.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debugf("Websocket error: %s", err)
			}
			return
		}
	}
}
