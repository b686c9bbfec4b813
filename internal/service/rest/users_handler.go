package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// UsersHandler обслуживает учётные записи /api/users и вход /api/login.
type UsersHandler struct {
	users  domain.UserRepository
	auth   *Authenticator
	logger *log.Entry
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register вешает маршруты учётных записей на роутер.
func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/users", h.list)
	r.Get("/users/{id}", h.get)
}

// RegisterAdmin вешает маршруты, доступные только администратору.
func (h *UsersHandler) RegisterAdmin(r chi.Router) {
	r.Post("/users", h.create)
}

func (h *UsersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	role, err := domain.ParseUserRole(req.Role)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	if req.Password == "" {
		respondError(h.logger, w, domain.ErrUserPasswordRequired)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if errs := user.Validate(); len(errs) > 0 {
		respondError(h.logger, w, errors.Join(errs...))
		return
	}

	if err := h.users.Create(user); err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created",
		"user":    toUserView(user),
	})
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	users, total, err := h.users.List(page)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": views,
		"pagination": paginationView{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
			Pages: page.Pages(total),
		},
	})
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserView(user)})
}

// login проверяет пароль и выдаёт JWT. Несуществующий email и неверный пароль
// отвечают одинаковым 401, чтобы не раскрывать наличие учётной записи.
func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	user, err := h.users.GetByEmail(strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondError(h.logger, w, err)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}
