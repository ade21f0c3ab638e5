package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
	"github.com/tamasbrandstadter/bank-api/internal/web"
)

var outcomeStatus = map[transfer.Outcome]int{
	transfer.Success:           http.StatusOK,
	transfer.InsufficientFunds: http.StatusConflict,
	transfer.IDMismatch:        http.StatusNotFound,
}

func (a *Application) Transfer(w http.ResponseWriter, r *http.Request) {
	// request validation
	var payload transfer.Request
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		web.RespondError(w, http.StatusBadRequest, "invalid request payload, unable to parse")
		return
	}
	defer r.Body.Close()

	if errs := payload.Validate(); errs != nil {
		web.RespondInvalid(w, errs)
		return
	}

	outcome, err := a.Transfers.Transfer(r.Context(), payload)
	if err != nil {
		respondUnexpected(w, "transfer funds", err)
		return
	}

	web.RespondText(w, outcomeStatus[outcome], string(outcome))
}
