// Package devauth is a stand-in authentication endpoint for development,
// examples and tests. It keeps accounts in memory and issues unsigned
// credentials with the same codec the client decodes them with.
package devauth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/credential"
	"github.com/MrEthical07/goSession/identity"
	"golang.org/x/crypto/bcrypt"
)

// DemoAccounts are seeded into every server as username -> password.
var DemoAccounts = map[string]string{
	"admin": "admin123",
	"user":  "user123",
}

var errDuplicate = errors.New("account already exists")

type account struct {
	user identity.Identity
	hash []byte
}

// Server serves POST /login, POST /register and the protected GET /me and
// GET /admin endpoints.
type Server struct {
	mu       sync.RWMutex
	accounts map[string]*account // keyed by lowercase username and email
	nextID   int

	codec *credential.Codec
	ttl   time.Duration
	cost  int
	mux   *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.codec = credential.NewCodec(credential.WithClock(now))
	}
}

// WithTokenTTL sets the lifetime of issued credentials (default 24h).
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost lowers the hashing cost, mostly for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		s.cost = cost
	}
}

// New returns a server seeded with DemoAccounts.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		accounts: make(map[string]*account),
		nextID:   1,
		codec:    credential.NewCodec(),
		ttl:      24 * time.Hour,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.create("admin", "Administrador", "admin@clube.local", DemoAccounts["admin"], identity.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.create("user", "Usuário", "user@clube.local", DemoAccounts["user"], identity.RoleUser); err != nil {
		return nil, err
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("POST /login", s.handleLogin)
	s.mux.HandleFunc("POST /register", s.handleRegister)
	s.mux.HandleFunc("GET /me", s.handleMe)
	s.mux.HandleFunc("GET /admin", s.handleAdmin)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type loginRequest struct {
	Principal string `json:"principal"`
	Secret    string `json:"secret"`
}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type authResponse struct {
	AccessToken string            `json:"access_token"`
	User        identity.Identity `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if strings.TrimSpace(req.Principal) == "" || req.Secret == "" {
		writeError(w, http.StatusBadRequest, "Usuário e senha são obrigatórios")
		return
	}

	s.mu.RLock()
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Principal))]
	s.mu.RUnlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Secret)) != nil {
		writeError(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	s.issue(w, http.StatusOK, acc.user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" || len(req.Secret) < 6 {
		writeError(w, http.StatusBadRequest, "Nome e senha de pelo menos 6 caracteres são obrigatórios")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, http.StatusBadRequest, "Email inválido")
		return
	}

	user, err := s.create(email, name, email, req.Secret, identity.RoleUser)
	if errors.Is(err, errDuplicate) {
		writeError(w, http.StatusConflict, "Email já cadastrado")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}

	s.issue(w, http.StatusCreated, user)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authorize(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token inválido ou expirado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": user})
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authorize(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token inválido ou expirado"})
		return
	}
	if user.Role != identity.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "message": "Acesso negado"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": user})
}

// authorize accepts live bearer credentials whose subject still exists.
func (s *Server) authorize(r *http.Request) (identity.Identity, bool) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return identity.Identity{}, false
	}
	claimed, ok := s.codec.Decode(raw).Identity()
	if !ok {
		return identity.Identity{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.user.ID == claimed.ID {
			return acc.user, true
		}
	}
	return identity.Identity{}, false
}

// Revoke deletes the account with id, so its credentials start failing.
func (s *Server) Revoke(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, acc := range s.accounts {
		if acc.user.ID == id {
			delete(s.accounts, key)
		}
	}
}

func (s *Server) create(username, name, email, secret string, role identity.Role) (identity.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return identity.Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userKey, emailKey := strings.ToLower(username), strings.ToLower(email)
	if _, ok := s.accounts[userKey]; ok {
		return identity.Identity{}, errDuplicate
	}
	if _, ok := s.accounts[emailKey]; ok {
		return identity.Identity{}, errDuplicate
	}

	acc := &account{
		user: identity.Identity{
			ID:          strconv.Itoa(s.nextID),
			DisplayName: name,
			Email:       email,
			Role:        role,
		},
		hash: hash,
	}
	s.nextID++
	s.accounts[userKey] = acc
	s.accounts[emailKey] = acc
	return acc.user, nil
}

func (s *Server) issue(w http.ResponseWriter, status int, user identity.Identity) {
	token, err := s.codec.Encode(user, s.ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro interno")
		return
	}
	writeJSON(w, status, authResponse{AccessToken: token, User: user})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
