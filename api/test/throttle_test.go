package test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/educast/catalog/api"
	"github.com/educast/catalog/rate"
	"github.com/sirupsen/logrus"
)

// A throttled response must still carry the CORS headers, otherwise browser
// clients cannot read the rejection.
func TestThrottledResponseCarriesCorsHeaders(t *testing.T) {
	const origin = "http://studio.test"

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin: origin,
		Log:        logger,
		Session:    scs.New(),
		Limiter:    rate.NewLimiter(1, 1, rate.Every(time.Hour)),
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Burst of one: the second request gets throttled.
	var w *http.Response
	for i := 0; i < 2; i++ {
		var err error
		w, err = http.Get(srv.URL + "/categories")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		w.Body.Close()
	}

	if w.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request not throttled: status code %s", w.Status)
	}
	if got := w.Header.Get("Access-Control-Allow-Origin"); got != origin {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, origin)
	}
}
