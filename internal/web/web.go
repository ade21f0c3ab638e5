package web

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tamasbrandstadter/bank-api/internal/validate"
)

func init() {
	// balances and amounts go over the wire as numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type ErrorResponse struct {
	Error  string               `json:"error"`
	Fields []validate.FieldError `json:"fields,omitempty"`
}

func Respond(w http.ResponseWriter, code int, data interface{}) {
	if code == http.StatusNoContent || data == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		return
	}

	b, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "unable to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err := w.Write(b); err != nil {
		log.WithError(errors.Wrap(err, "write response body")).Warn("respond")
	}
}

func RespondText(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)

	if _, err := w.Write([]byte(text)); err != nil {
		log.WithError(errors.Wrap(err, "write response body")).Warn("respond text")
	}
}

func RespondError(w http.ResponseWriter, code int, msg string) {
	log.WithFields(log.Fields{
		"status": code,
		"error":  msg,
	}).Info("error while serving request")

	writeError(w, code, ErrorResponse{Error: msg})
}

func RespondInvalid(w http.ResponseWriter, errs validate.Errors) {
	log.WithField("fields", errs.Error()).Info("request validation failed")

	writeError(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request", Fields: errs})
}

func writeError(w http.ResponseWriter, code int, resp ErrorResponse) {
	b, _ := json.Marshal(resp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err := w.Write(b); err != nil {
		log.WithError(errors.Wrap(err, "write error body")).Warn("respond error")
	}
}
