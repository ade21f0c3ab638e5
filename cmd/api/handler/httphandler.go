package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
	"github.com/tamasbrandstadter/bank-api/internal/web"
)

const (
	accounts     = "/bank/account"
	customers    = "/bank/customers"
	customerByID = "/bank/customer/:id"
	transfers    = "/bank/transfer"
	balanceByID  = "/bank/balance/:id"
	health       = "/health"
)

type Application struct {
	Accounts  *account.Service
	Customers *customer.Service
	Transfers *transfer.Service
	handler   http.Handler
}

func (a *Application) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func NewApplication(as *account.Service, cs *customer.Service, ts *transfer.Service) *Application {
	app := Application{
		Accounts:  as,
		Customers: cs,
		Transfers: ts,
	}

	router := httprouter.New()
	router.HandlerFunc(http.MethodPost, accounts, app.CreateAccount)
	router.HandlerFunc(http.MethodGet, customers, app.FindAllCustomers)
	router.HandlerFunc(http.MethodGet, customerByID, app.GetCustomerById)
	router.HandlerFunc(http.MethodPut, customerByID, app.UpdateCustomer)
	router.HandlerFunc(http.MethodPost, transfers, app.Transfer)
	router.HandlerFunc(http.MethodGet, balanceByID, app.GetBalance)
	router.HandlerFunc(http.MethodGet, health, app.Health)
	router.PanicHandler = panicHandler

	app.handler = router
	return &app
}

func (a *Application) Health(w http.ResponseWriter, _ *http.Request) {
	web.Respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func panicHandler(w http.ResponseWriter, r *http.Request, rcv interface{}) {
	log.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Errorf("recovered from panic: %v", rcv)

	web.RespondError(w, http.StatusInternalServerError, "internal server error")
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(httprouter.ParamsFromContext(r.Context()).ByName("id"))
}

// respondUnexpected logs err and answers with a generic client error.
func respondUnexpected(w http.ResponseWriter, op string, err error) {
	log.WithError(err).Error(op)
	web.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unable to %s", op))
}
