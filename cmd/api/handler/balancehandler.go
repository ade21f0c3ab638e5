package handler

import (
	"fmt"
	"net/http"

	"github.com/tamasbrandstadter/bank-api/internal/web"
)

func (a *Application) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		web.RespondError(w, http.StatusBadRequest, "unable to parse account id")
		return
	}

	acc, ok, err := a.Accounts.Balance(r.Context(), id)
	if err != nil {
		respondUnexpected(w, "find account", err)
		return
	}
	if !ok {
		web.RespondError(w, http.StatusNotFound, fmt.Sprintf("account id %d is not found", id))
		return
	}

	web.Respond(w, http.StatusOK, acc)
}
