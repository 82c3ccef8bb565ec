package httpapi

import (
	"net/http"

	"github.com/09junaid/full-ecommerce/internal/contact"
)

func (h Handlers) submitContact(w http.ResponseWriter, r *http.Request) {
	var input contact.SubmitInput
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	m, err := h.Contacts.Submit(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusCreated, envelope{
		"message": "Thanks for reaching out, we will get back to you soon",
		"contact": m,
	})
}

func (h Handlers) listContacts(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Contacts.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"contacts": messages})
}
