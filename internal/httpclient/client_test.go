package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_SendsHeaders(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":"0x38"}`)
	}))
	defer srv.Close()

	client, err := New(WithName("test-rpc"), WithHeaders(map[string]string{"X-Api-Key": "secret"}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	resp.Body.Close()

	if gotKey != "secret" {
		t.Errorf("X-Api-Key = %q, want secret", gotKey)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{301, "3xx"},
		{429, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		if got := statusClass(tt.code); got != tt.want {
			t.Errorf("statusClass(%d) = %s, want %s", tt.code, got, tt.want)
		}
	}
}
