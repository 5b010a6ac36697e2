package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/educast/catalog/api"
	"github.com/educast/catalog/api/weberr"
	"github.com/educast/catalog/core/category"
	"github.com/educast/catalog/core/user"
	"github.com/educast/catalog/database/dbtest"
	"github.com/educast/catalog/media"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const testPass = "sup3rs3cret!!"

// TestEnv runs the full API against a disposable Postgres container. The
// single HTTP client shares a cookie jar, so logging in as another user
// switches the active identity.
type TestEnv struct {
	DB       *sqlx.DB
	Server   *httptest.Server
	URL      string
	Uploader *media.Fake

	client *http.Client
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	db := dbtest.NewDB(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	uploader := &media.Fake{}

	mux := api.APIMux(api.APIConfig{
		Log:      logger,
		DB:       db,
		Session:  scs.New(),
		Uploader: uploader,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("building cookie jar: %v", err)
	}

	return &TestEnv{
		DB:       db,
		Server:   srv,
		URL:      srv.URL,
		Uploader: uploader,
		client:   &http.Client{Jar: jar},
	}
}

func (e *TestEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	r, err := http.NewRequest(method, e.URL+path, body)
	if err != nil {
		t.Fatalf("building request %s %s: %v", method, path, err)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}

	w, err := e.client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return w
}

func (e *TestEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling body: %v", err)
	}
	return e.do(t, http.MethodPost, path, bytes.NewReader(b), "application/json")
}

func (e *TestEnv) putJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling body: %v", err)
	}
	return e.do(t, http.MethodPut, path, bytes.NewReader(b), "application/json")
}

func decode[T any](t *testing.T, w *http.Response) T {
	t.Helper()
	defer w.Body.Close()

	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return out
}

// decodeErr asserts the status code and returns the error envelope.
func decodeErr(t *testing.T, w *http.Response, status int) weberr.ErrorResponse {
	t.Helper()

	if w.StatusCode != status {
		t.Fatalf("status code %s, want %d", w.Status, status)
	}
	return decode[weberr.ErrorResponse](t, w)
}

func (e *TestEnv) signupOK(t *testing.T, name, email, role string) user.User {
	t.Helper()

	w := e.postJSON(t, "/auth/signup", map[string]string{
		"name":            name,
		"email":           email,
		"role":            role,
		"password":        testPass,
		"passwordConfirm": testPass,
	})
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't sign up %s: status code %s", email, w.Status)
	}
	return decode[user.User](t, w)
}

func (e *TestEnv) loginOK(t *testing.T, email string) {
	t.Helper()

	w := e.postJSON(t, "/auth/login", map[string]string{
		"email":    email,
		"password": testPass,
	})
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't log in %s: status code %s", email, w.Status)
	}
}

func (e *TestEnv) createCategoryOK(t *testing.T, name string) category.Category {
	t.Helper()

	w := e.postJSON(t, "/categories", map[string]string{"name": name})
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create category: status code %s", w.Status)
	}
	return decode[category.Category](t, w)
}

// courseForm builds the multipart body for course creation, with a small fake
// thumbnail unless withThumb is false.
func courseForm(t *testing.T, fields map[string]string, withThumb bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing form field %s: %v", k, err)
		}
	}

	if withThumb {
		fw, err := mw.CreateFormFile("thumbnailImage", "thumb.png")
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := fw.Write([]byte("not-really-a-png")); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (e *TestEnv) countRows(t *testing.T, table string) int {
	t.Helper()

	var n int
	if err := e.DB.Get(&n, fmt.Sprintf("SELECT count(*) FROM %s", table)); err != nil {
		t.Fatalf("counting rows in %s: %v", table, err)
	}
	return n
}
