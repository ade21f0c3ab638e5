package handler

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
)

func itoa(i int) string {
	return strconv.Itoa(i)
}

func TestGetBalance(t *testing.T) {
	app := newApp()
	id := createAccount(t, app, "20.75", "a@b.com")

	w := serve(t, app, http.MethodGet, "/bank/balance/"+itoa(id), "")

	expectStatus(t, w, http.StatusOK)

	var acc account.Account
	decode(t, w, &acc)

	assert.Equal(t, id, acc.ID)
	assert.Equal(t, account.Saving, acc.Type)
	assert.True(t, decimal.RequireFromString("20.75").Equal(acc.Balance))
	if assert.Len(t, acc.Customers, 1) {
		assert.Equal(t, "a@b.com", acc.Customers[0].Email)
	}
}

func TestGetBalanceNotFound(t *testing.T) {
	w := serve(t, newApp(), http.MethodGet, "/bank/balance/3", "")

	expectStatus(t, w, http.StatusNotFound)

	var response map[string]string
	decode(t, w, &response)

	assert.Equal(t, "account id 3 is not found", response["error"])
}

func TestGetBalanceWithInvalidId(t *testing.T) {
	w := serve(t, newApp(), http.MethodGet, "/bank/balance/textId", "")

	expectStatus(t, w, http.StatusBadRequest)

	var response map[string]string
	decode(t, w, &response)

	assert.Equal(t, "unable to parse account id", response["error"])
}

func TestGetBalanceAfterCustomerUpdate(t *testing.T) {
	app := newApp()
	id := createAccount(t, app, "1", "a@b.com")

	serve(t, app, http.MethodGet, "/bank/balance/"+itoa(id), "")
	serve(t, app, http.MethodPut, "/bank/customer/1", `{"firstName":"x","lastName":"y","email":"z@b.com"}`)

	w := serve(t, app, http.MethodGet, "/bank/balance/"+itoa(id), "")

	var acc account.Account
	decode(t, w, &acc)

	if assert.Len(t, acc.Customers, 1) {
		assert.Equal(t, "z@b.com", acc.Customers[0].Email)
	}
}
