// Package relay is the development transport: it moves encoded envelopes
// between connected clients the way the ledger moves transaction notes, and
// serves the key directory that stands in for on-chain key publishing. It
// never sees plaintext.
package relay

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/CorvidLabs/algochat/internal/cryptographic/signature"
	"github.com/CorvidLabs/algochat/internal/model"
	"github.com/CorvidLabs/algochat/internal/protocol/envelope"
	"github.com/CorvidLabs/algochat/internal/repository/directory"
	"github.com/CorvidLabs/algochat/internal/service/redis"
	"github.com/CorvidLabs/algochat/internal/utils/log"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type (
	Server struct {
		mu            sync.Mutex
		conns         map[string]*websocket.Conn
		directoryRepo *directory.DirectoryRepo
		redisService  *redis.RedisService
	}
)

func NewServer(directoryRepo *directory.DirectoryRepo, redisSvc *redis.RedisService) *Server {
	return &Server{
		conns:         make(map[string]*websocket.Conn),
		directoryRepo: directoryRepo,
		redisService:  redisSvc,
	}
}

func (s *Server) Run(addr string) error {
	r := mux.NewRouter()

	r.HandleFunc("/notes", s.HandleNotesWS()).Methods(http.MethodGet)
	r.HandleFunc("/keys", s.PublishKey()).Methods(http.MethodPost)
	r.HandleFunc("/keys/{address}", s.GetKey()).Methods(http.MethodGet)

	log.Info("relay listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, r)
}

func (s *Server) HandleNotesWS() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		addr := r.URL.Query().Get("addr")
		if addr == "" {
			http.Error(w, "addr cannot be empty", http.StatusBadRequest)
			return
		}

		s.mu.Lock()
		_, dup := s.conns[addr]
		s.mu.Unlock()
		if dup {
			http.Error(w, "duplicated addr", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		s.mu.Lock()
		s.conns[addr] = conn
		s.mu.Unlock()

		go s.processNotes(addr, conn)
		if err := s.forwardQueuedNotes(addr); err != nil {
			log.Error("forward queued notes failed", zap.Error(err))
		}
	}
}

func (s *Server) processNotes(addr string, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Debug("client socket closed", zap.String("addr", addr), zap.Error(err))
			s.mu.Lock()
			delete(s.conns, addr)
			s.mu.Unlock()
			conn.Close()
			break
		}

		var note model.Note
		if err := json.Unmarshal(data, &note); err != nil {
			log.Error("unmarshal note failed", zap.Error(err))
			continue
		}

		// transaction notes cap at 1 KiB; anything larger would never
		// have made it on-chain either
		if len(note.Data) > envelope.MaxNoteSize {
			log.Debug("dropping oversized note", zap.String("from", note.From), zap.Int("size", len(note.Data)))
			continue
		}

		s.mu.Lock()
		dst, online := s.conns[note.To]
		s.mu.Unlock()

		if online {
			if err := dst.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error("forward note failed", zap.Error(err))
			}
		} else if err := s.queueNote(context.TODO(), &note); err != nil {
			log.Error("queue note failed", zap.Error(err))
		}
	}
}

// PublishKey accepts a key-publish announcement after verifying that the
// ed25519 signature binds the encryption key to the signing key.
func (s *Server) PublishKey() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var k model.PeerKey
		if err := json.NewDecoder(r.Body).Decode(&k); err != nil {
			http.Error(w, "malformed key record", http.StatusBadRequest)
			return
		}

		if k.Address == "" || len(k.EncryptionKey) != envelope.PublicKeySize ||
			len(k.SigningKey) != ed25519.PublicKeySize {
			http.Error(w, "malformed key record", http.StatusBadRequest)
			return
		}

		if !signature.ED25519Verify(k.SigningKey, k.SignedPayload(), k.Signature) {
			http.Error(w, "bad signature", http.StatusForbidden)
			return
		}

		if err := s.directoryRepo.Publish(r.Context(), &k); err != nil {
			log.Error("publish key failed", zap.Error(err))
			http.Error(w, "publish failed", http.StatusInternalServerError)
			return
		}

		log.Info("key published", zap.String("address", k.Address))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) GetKey() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		address := vars["address"]

		k, err := s.directoryRepo.GetByAddress(r.Context(), address)
		if err != nil {
			log.Error("get key failed", zap.Error(err))
			http.Error(w, "get key failed", http.StatusInternalServerError)
			return
		}

		if k == nil {
			http.Error(w, "no key published for address", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(k); err != nil {
			log.Error("encode key failed", zap.Error(err))
		}
	}
}
