package profiling

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouter(t *testing.T) {
	server := httptest.NewServer(NewRouter())
	defer server.Close()

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	response, err := client.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusSeeOther {
		t.Fatalf("TestRouter: expected a redirect but got status %d", response.StatusCode)
	}

	response, err = client.Get(server.URL + "/debug/pprof/goroutine?debug=1")
	if err != nil {
		t.Fatalf("Get: %s", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("TestRouter: expected status 200 but got %d", response.StatusCode)
	}
}
