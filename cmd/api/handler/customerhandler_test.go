package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
)

func TestGetCustomerById(t *testing.T) {
	app := newApp()
	accID := createAccount(t, app, "999", "test15@test15.com")

	w := serve(t, app, http.MethodGet, "/bank/customer/1", "")

	expectStatus(t, w, http.StatusOK)

	expected := customer.Customer{
		ID:        1,
		FirstName: "first",
		LastName:  "last",
		Email:     "test15@test15.com",
		AccountID: accID,
	}

	var actual customer.Customer
	decode(t, w, &actual)

	if diff := cmp.Diff(expected, actual, cmpopts.IgnoreFields(customer.Customer{}, "CreatedAt", "ModifiedAt")); diff != "" {
		t.Errorf("unexpected difference in response body:\n%v", diff)
	}
	assert.False(t, actual.CreatedAt.IsZero())
}

func TestGetCustomerByIdNotFound(t *testing.T) {
	w := serve(t, newApp(), http.MethodGet, fmt.Sprintf("/bank/customer/%d", 2), "")

	expectStatus(t, w, http.StatusNotFound)

	var response map[string]string
	decode(t, w, &response)

	assert.Equal(t, "customer id 2 is not found", response["error"])
}

func TestGetCustomerByIdWithInvalidId(t *testing.T) {
	w := serve(t, newApp(), http.MethodGet, "/bank/customer/textId", "")

	expectStatus(t, w, http.StatusBadRequest)

	var response map[string]string
	decode(t, w, &response)

	assert.Equal(t, "unable to parse customer id", response["error"])
}

func TestFindAllCustomers(t *testing.T) {
	app := newApp()
	createAccount(t, app, "1", "a@b.com")
	createAccount(t, app, "2", "c@d.com")

	w := serve(t, app, http.MethodGet, "/bank/customers", "")

	expectStatus(t, w, http.StatusOK)

	var cs []customer.Customer
	decode(t, w, &cs)

	if assert.Len(t, cs, 2) {
		assert.Equal(t, "a@b.com", cs[0].Email)
		assert.Equal(t, "c@d.com", cs[1].Email)
	}
}

func TestFindAllCustomersEmpty(t *testing.T) {
	w := serve(t, newApp(), http.MethodGet, "/bank/customers", "")

	expectStatus(t, w, http.StatusOK)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUpdateCustomer(t *testing.T) {
	app := newApp()
	accID := createAccount(t, app, "10", "old@last.com")

	w := serve(t, app, http.MethodPut, "/bank/customer/1", `{"firstName":"new","lastName":"name","email":"New@Name.com"}`)

	expectStatus(t, w, http.StatusOK)

	var c customer.Customer
	decode(t, w, &c)

	assert.Equal(t, 1, c.ID)
	assert.Equal(t, "new", c.FirstName)
	assert.Equal(t, "name", c.LastName)
	assert.Equal(t, "New@Name.com", c.Email)
	assert.Equal(t, accID, c.AccountID)
}

func TestUpdateCustomerNotFound(t *testing.T) {
	w := serve(t, newApp(), http.MethodPut, "/bank/customer/5", `{"firstName":"new","lastName":"name","email":"new@name.com"}`)

	expectStatus(t, w, http.StatusNotFound)

	var response map[string]string
	decode(t, w, &response)

	assert.Equal(t, "customer id 5 is not found", response["error"])
}

func TestUpdateCustomerDuplicateEmail(t *testing.T) {
	app := newApp()
	createAccount(t, app, "10", "first@last.com")
	createAccount(t, app, "10", "second@last.com")

	w := serve(t, app, http.MethodPut, "/bank/customer/2", `{"firstName":"new","lastName":"name","email":"first@last.com"}`)

	expectStatus(t, w, http.StatusConflict)

	got := serve(t, app, http.MethodGet, "/bank/customer/2", "")

	var c customer.Customer
	decode(t, got, &c)

	assert.Equal(t, "second@last.com", c.Email)
	assert.Equal(t, "first", c.FirstName)
}

func TestUpdateCustomerInvalid(t *testing.T) {
	app := newApp()
	createAccount(t, app, "10", "first@last.com")

	w := serve(t, app, http.MethodPut, "/bank/customer/1", `{"firstName":"new","lastName":"","email":"nope"}`)

	expectStatus(t, w, http.StatusBadRequest)
}
