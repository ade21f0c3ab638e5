package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
	"github.com/tamasbrandstadter/bank-api/internal/validate"
	"github.com/tamasbrandstadter/bank-api/internal/web"
)

func (a *Application) GetCustomerById(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		web.RespondError(w, http.StatusBadRequest, "unable to parse customer id")
		return
	}

	c, ok, err := a.Customers.ByID(r.Context(), id)
	if err != nil {
		respondUnexpected(w, "find customer", err)
		return
	}
	if !ok {
		web.RespondError(w, http.StatusNotFound, fmt.Sprintf("customer id %d is not found", id))
		return
	}

	web.Respond(w, http.StatusOK, c)
}

func (a *Application) FindAllCustomers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.Customers.All(r.Context())
	if err != nil {
		respondUnexpected(w, "retrieve customers", err)
		return
	}

	web.Respond(w, http.StatusOK, cs)
}

func (a *Application) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	// request validation
	id, err := pathID(r)
	if err != nil {
		web.RespondError(w, http.StatusBadRequest, "unable to parse customer id")
		return
	}

	var payload customer.Fields
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		web.RespondError(w, http.StatusBadRequest, "invalid request payload, unable to parse")
		return
	}
	defer r.Body.Close()

	if errs := validate.Struct(payload); errs != nil {
		web.RespondInvalid(w, errs)
		return
	}

	if _, ok, err := a.Customers.ByID(r.Context(), id); err != nil {
		respondUnexpected(w, "find customer", err)
		return
	} else if !ok {
		web.RespondError(w, http.StatusNotFound, fmt.Sprintf("customer id %d is not found", id))
		return
	}

	c, err := a.Customers.Update(r.Context(), id, payload)
	if err != nil {
		web.RespondError(w, http.StatusConflict, fmt.Sprintf("unable to update customer id %d", id))
		return
	}

	web.Respond(w, http.StatusOK, c)
}
