package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
	"github.com/tamasbrandstadter/bank-api/internal/db"
	"github.com/tamasbrandstadter/bank-api/internal/validate"
	"github.com/tamasbrandstadter/bank-api/internal/web"
)

func (a *Application) CreateAccount(w http.ResponseWriter, r *http.Request) {
	// request validation
	var payload account.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		web.RespondError(w, http.StatusBadRequest, "invalid request payload, unable to parse")
		return
	}
	defer r.Body.Close()

	if errs := validate.Struct(payload); errs != nil {
		web.RespondInvalid(w, errs)
		return
	}

	acc, err := a.Accounts.Create(r.Context(), payload.Type, *payload.Balance, payload.NewCustomers())
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			web.RespondError(w, http.StatusConflict, "email is taken, specify another one")
		case isRuleViolation(err):
			web.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			respondUnexpected(w, "create account", err)
		}
		return
	}

	web.Respond(w, http.StatusCreated, acc)
}

func isRuleViolation(err error) bool {
	switch errors.Cause(err) {
	case account.ErrInvalidCustomerCount, account.ErrUnknownType, account.ErrNegativeBalance:
		return true
	}
	return false
}
