package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/galleyhq/galley/internal/orders"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBase {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBase)
	}

	u, err = parseBaseURL("https://kitchen.local:8443/app?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if got := u.String(); got != "https://kitchen.local:8443" {
		t.Fatalf("url = %q, want https://kitchen.local:8443", got)
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatal("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestClient_OrderEndpoints(t *testing.T) {
	t.Parallel()

	var (
		gotStatusBody   map[string]string
		gotCreateBody   orders.NewOrder
		gotFeedbackBody orders.Feedback
		gotRequestID    string
		gotUserAgent    string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/orders":
			_, _ = io.WriteString(w, `[{"id":1,"customerName":"Ana","status":"pending","createdAt":"2025-03-01T12:00:00",
				"items":[{"id":1,"productId":3,"productName":"Burger","quantity":1,"customizations":{"extras":"cheese,bacon"}}]}]`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/orders/1/status":
			gotRequestID = r.Header.Get("X-Request-ID")
			_ = json.NewDecoder(r.Body).Decode(&gotStatusBody)
			_, _ = io.WriteString(w, `{"id":1,"customerName":"Ana","status":"preparing","items":[{"productName":"Burger","quantity":1}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/orders":
			_ = json.NewDecoder(r.Body).Decode(&gotCreateBody)
			_, _ = io.WriteString(w, `{"id":2,"customerName":"Luis","status":"pending","items":[{"productName":"Fries","quantity":2}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/orders/2/feedback":
			_ = json.NewDecoder(r.Body).Decode(&gotFeedbackBody)
			_, _ = io.WriteString(w, `{"message":"ok"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	list, err := client.FetchOrders(ctx)
	if err != nil {
		t.Fatalf("FetchOrders returned error: %v", err)
	}
	if len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("FetchOrders = %#v, want one order with id 1", list)
	}
	if got := list[0].Items[0].Customizations["extras"]; got.String() != "cheese, bacon" {
		t.Fatalf("extras = %q, want %q", got.String(), "cheese, bacon")
	}
	if gotUserAgent != defaultUserAgent {
		t.Fatalf("User-Agent = %q, want %q", gotUserAgent, defaultUserAgent)
	}

	updated, err := client.UpdateStatus(WithRequestID(ctx, "req-1"), 1, orders.StatusPreparing)
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if updated.Status != orders.StatusPreparing {
		t.Fatalf("status = %q, want preparing", updated.Status)
	}
	if gotStatusBody["status"] != "preparing" {
		t.Fatalf("status body = %v, want preparing", gotStatusBody)
	}
	if gotRequestID != "req-1" {
		t.Fatalf("X-Request-ID = %q, want req-1", gotRequestID)
	}

	created, err := client.CreateOrder(ctx, orders.NewOrder{
		CustomerName: "Luis",
		Items:        []orders.NewItem{{ProductID: 9, Quantity: 2, Customizations: orders.Customizations{}}},
	})
	if err != nil {
		t.Fatalf("CreateOrder returned error: %v", err)
	}
	if created.ID != 2 {
		t.Fatalf("created id = %d, want 2", created.ID)
	}
	if gotCreateBody.CustomerName != "Luis" || len(gotCreateBody.Items) != 1 || gotCreateBody.Items[0].ProductID != 9 {
		t.Fatalf("create body = %#v", gotCreateBody)
	}

	if err := client.SubmitFeedback(ctx, 2, orders.Feedback{Rating: 5, Comment: "great"}); err != nil {
		t.Fatalf("SubmitFeedback returned error: %v", err)
	}
	if gotFeedbackBody.Rating != 5 || gotFeedbackBody.Comment != "great" {
		t.Fatalf("feedback body = %#v", gotFeedbackBody)
	}
}

func TestClient_EmptySnapshotIsNotNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer server.Close()

	client, _ := NewClient(server.URL)
	list, err := client.FetchOrders(context.Background())
	if err != nil {
		t.Fatalf("FetchOrders returned error: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("FetchOrders = %#v, want empty non-nil slice", list)
	}
}

func TestClient_MalformedSnapshot(t *testing.T) {
	cases := map[string]string{
		"object instead of array": `{"orders":[]}`,
		"nested customization":    `[{"id":1,"status":"pending","items":[{"quantity":1,"customizations":{"extras":{"a":1}}}]}]`,
		"truncated":               `[{"id":1,`,
		"null body":               "null",
		"string body":             `"orders"`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			}))
			defer server.Close()

			client, _ := NewClient(server.URL)
			list, err := client.FetchOrders(context.Background())
			if !errors.Is(err, ErrMalformedPayload) {
				t.Fatalf("err = %v, want ErrMalformedPayload", err)
			}
			if list != nil {
				t.Fatalf("FetchOrders returned %d orders alongside an error", len(list))
			}
		})
	}
}

func TestClient_HTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders/1/status":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Invalid status transition"}`)
		case "/api/orders/2/status":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream down\n")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, _ := NewClient(server.URL)
	ctx := context.Background()

	_, err := client.UpdateStatus(ctx, 1, orders.StatusReady)
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("err = %v, want *HTTPError", err)
	}
	if herr.StatusCode != http.StatusBadRequest || herr.Message != "Invalid status transition" {
		t.Fatalf("HTTPError = %#v", herr)
	}

	_, err = client.UpdateStatus(ctx, 2, orders.StatusReady)
	if !errors.As(err, &herr) || herr.Message != "upstream down" {
		t.Fatalf("err = %v, want raw body message", err)
	}

	err = client.RegenerateStats(ctx)
	if got := StatusCode(err); got != http.StatusNotFound {
		t.Fatalf("StatusCode = %d, want 404", got)
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Fatal("StatusCode of a plain error should be 0")
	}
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client, _ := NewClient(server.URL)
	server.Close()

	if _, err := client.FetchOrders(context.Background()); err == nil {
		t.Fatal("FetchOrders against a closed server returned nil error")
	}
}
