package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tamasbrandstadter/bank-api/cmd/api/account"
	"github.com/tamasbrandstadter/bank-api/cmd/api/customer"
	"github.com/tamasbrandstadter/bank-api/cmd/api/storage"
	"github.com/tamasbrandstadter/bank-api/cmd/api/transfer"
	"github.com/tamasbrandstadter/bank-api/internal/cache"
)

func newApp() *Application {
	store := storage.NewMemory()
	c := cache.NewLocal(time.Minute)

	return NewApplication(
		account.NewService(store, c),
		customer.NewService(store, c),
		transfer.NewService(store, c, nil),
	)
}

func serve(t *testing.T, a *Application, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("error creating request: %v", err)
	}

	w := httptest.NewRecorder()
	a.ServeHTTP(w, req)

	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("error decoding response body: %v", err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, e int) {
	t.Helper()

	if a := w.Code; e != a {
		t.Errorf("expected status code: %v, got status code: %v", e, a)
	}
}

// createAccount opens a SAVING account for email and returns its id.
func createAccount(t *testing.T, a *Application, balance, email string) int {
	t.Helper()

	body := `{"accountType":"SAVING","balance":` + balance +
		`,"customers":[{"firstName":"first","lastName":"last","email":"` + email + `"}]}`

	w := serve(t, a, http.MethodPost, "/bank/account", body)
	expectStatus(t, w, http.StatusCreated)

	var acc account.Account
	decode(t, w, &acc)

	return acc.ID
}
