package httpapi

import (
	"net/http"

	"github.com/09junaid/full-ecommerce/internal/middleware"
	"github.com/09junaid/full-ecommerce/internal/user"
)

func (h Handlers) register(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		fail(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	u, err := h.Users.Register(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusCreated, envelope{
		"message": "User registered successfully",
		"user":    u.Public(),
	})
}

func (h Handlers) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, u, err := h.Users.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusOK, envelope{
		"message": "Login successful",
		"token":   token,
		"user":    u.Public(),
	})
}

// userAuth and adminAuth exist for the storefront's route guards: reaching
// them at all means the middleware chain accepted the token.
func (h Handlers) userAuth(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, envelope{"ok": true})
}

func (h Handlers) adminAuth(w http.ResponseWriter, r *http.Request) {
	ok(w, http.StatusOK, envelope{"ok": true})
}

func (h Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	public := make([]user.PublicUser, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	ok(w, http.StatusOK, envelope{"users": public})
}

func identity(r *http.Request) middleware.Identity {
	id, _ := middleware.IdentityFrom(r.Context())
	return id
}
