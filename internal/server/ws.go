package server

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/facemark/internal/app"
	"github.com/ayusman/facemark/internal/detector"
	"github.com/ayusman/facemark/internal/server/api"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// recognition is the reply to each frame received on the socket.
type recognition struct {
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
	Matched bool   `json:"matched"`
}

// RecognizeSocket runs recognition on images streamed over a WebSocket.
// Each binary message is one encoded image and gets one JSON reply.
type RecognizeSocket struct {
	service   api.Service
	readLimit int64
}

// NewRecognizeSocket creates a new RecognizeSocket. Frames larger than
// api.MaxUploadSize close the connection.
func NewRecognizeSocket(s api.Service) *RecognizeSocket {
	return &RecognizeSocket{service: s, readLimit: api.MaxUploadSize}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *RecognizeSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.readLimit)

	session := uuid.NewString()
	log.Printf("Recognition session %s opened", session)
	defer log.Printf("Recognition session %s closed", session)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		reply := h.recognize(r, data)
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("Recognition session %s: write error: %v", session, err)
			return
		}
	}
}

func (h *RecognizeSocket) recognize(r *http.Request, data []byte) recognition {
	// Undecodable frames are answered like missing ones.
	img, _ := detector.DecodeImage(data)

	res, err := h.service.Recognize(r.Context(), img)
	reply := recognition{Message: app.RecognizeMessage(res, err), Matched: err == nil}
	if err == nil {
		reply.Name = res.Match.Identity
	}
	return reply
}
