package pageserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/layermap-scraper/internal/httpclient"
	"github.com/stacklok/layermap-scraper/internal/pageserver"
)

func TestPageserverClient(t *testing.T) {
	t.Parallel()
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pageserver Client Suite")
}

var _ = Describe("Client", func() {
	var (
		mux    *http.ServeMux
		server *httptest.Server
		client pageserver.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		server.Config.SetKeepAlivesEnabled(false)

		var err error
		client, err = pageserver.NewClient(server.URL+"/", httpclient.NewDefaultClient(5*time.Second))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("NewClient", func() {
		It("rejects endpoints without an http scheme", func() {
			_, err := pageserver.NewClient("pageserver:9898", httpclient.NewDefaultClient(0))
			Expect(err).To(HaveOccurred())
		})

		It("requires an http client", func() {
			_, err := pageserver.NewClient("http://pageserver:9898", nil)
			Expect(err).To(MatchError(ContainSubstring("http client is required")))
		})
	})

	Describe("PageserverID", func() {
		It("returns a numeric id as a string", func() {
			mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id": 17}`))
			})
			id, err := client.PageserverID(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("17"))
		})

		It("accepts a string id", func() {
			mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id": "ps-1"}`))
			})
			id, err := client.PageserverID(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("ps-1"))
		})

		It("fails when the body is not an object", func() {
			mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[1, 2]`))
			})
			_, err := client.PageserverID(ctx)
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
		})

		It("fails when the id is missing", func() {
			mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			})
			_, err := client.PageserverID(ctx)
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
		})

		It("fails on a non-success status", func() {
			mux.HandleFunc("GET /v1/status", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			})
			_, err := client.PageserverID(ctx)
			var httpErr *httpclient.HTTPError
			Expect(errors.As(err, &httpErr)).To(BeTrue())
			Expect(httpErr.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("ListTenants", func() {
		It("returns tenant ids", func() {
			mux.HandleFunc("GET /v1/tenant", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"id": "A", "state": "Active"}, {"id": "B"}]`))
			})
			ids, err := client.ListTenants(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"A", "B"}))
		})

		It("fails when the body is not a list", func() {
			mux.HandleFunc("GET /v1/tenant", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"tenants": []}`))
			})
			_, err := client.ListTenants(ctx)
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
		})

		It("fails when the body is null", func() {
			mux.HandleFunc("GET /v1/tenant", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`null`))
			})
			ids, err := client.ListTenants(ctx)
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
			Expect(ids).To(BeNil())
		})

		It("fails when an entry has no id", func() {
			mux.HandleFunc("GET /v1/tenant", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"id": "A"}, {"tenant": "x"}]`))
			})
			ids, err := client.ListTenants(ctx)
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("tenant entry 1 has no id")))
			Expect(ids).To(BeNil())
		})

		It("returns an empty list for a pageserver without tenants", func() {
			mux.HandleFunc("GET /v1/tenant", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[]`))
			})
			ids, err := client.ListTenants(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(BeEmpty())
		})
	})

	Describe("ListTimelines", func() {
		It("returns timeline ids of the tenant", func() {
			mux.HandleFunc("GET /v1/tenant/A/timeline", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"timeline_id": "1"}, {"timeline_id": "2"}]`))
			})
			ids, err := client.ListTimelines(ctx, "A")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]string{"1", "2"}))
		})

		It("fails for an unknown tenant", func() {
			_, err := client.ListTimelines(ctx, "missing")
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("fails when the body is null", func() {
			mux.HandleFunc("GET /v1/tenant/A/timeline", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`null`))
			})
			ids, err := client.ListTimelines(ctx, "A")
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
			Expect(ids).To(BeNil())
		})

		It("fails when an entry has no timeline_id", func() {
			mux.HandleFunc("GET /v1/tenant/A/timeline", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"timeline_id": "1"}, {"state": "Active"}]`))
			})
			_, err := client.ListTimelines(ctx, "A")
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring("timeline entry 1 of tenant A has no timeline_id")))
		})
	})

	Describe("GetLayerMap", func() {
		var gotReset string

		BeforeEach(func() {
			gotReset = ""
			mux.HandleFunc("GET /v1/tenant/A/timeline/1/layer", func(w http.ResponseWriter, r *http.Request) {
				gotReset = r.URL.Query().Get("reset")
				w.Header().Set(pageserver.LaunchTimestampHeader, "2024-01-15T10:30:00Z")
				_, _ = w.Write([]byte(`{"in_memory_layers": [], "historic_layers": [{"layer_file_name": "x"}]}`))
			})
		})

		It("passes the reset mode and returns the launch id and raw payload", func() {
			lm, err := client.GetLayerMap(ctx, "A", "1", pageserver.AllStats)
			Expect(err).NotTo(HaveOccurred())
			Expect(gotReset).To(Equal("AllStats"))
			Expect(lm.LaunchID).NotTo(BeNil())
			Expect(*lm.LaunchID).To(Equal("2024-01-15T10:30:00Z"))
			Expect(string(lm.Payload)).To(ContainSubstring(`"historic_layers"`))
		})

		It("rejects unknown reset modes without a request", func() {
			_, err := client.GetLayerMap(ctx, "A", "1", pageserver.ResetMode("Everything"))
			Expect(err).To(MatchError(ContainSubstring("invalid reset mode")))
			Expect(gotReset).To(BeEmpty())
		})

		It("fails when the payload is not JSON", func() {
			mux.HandleFunc("GET /v1/tenant/A/timeline/2/layer", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html>`))
			})
			_, err := client.GetLayerMap(ctx, "A", "2", pageserver.AllStats)
			Expect(errors.Is(err, pageserver.ErrUnexpectedResponse)).To(BeTrue())
		})

		It("leaves the launch id nil when the header is absent", func() {
			mux.HandleFunc("GET /v1/tenant/A/timeline/3/layer", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			})
			lm, err := client.GetLayerMap(ctx, "A", "3", pageserver.NoReset)
			Expect(err).NotTo(HaveOccurred())
			Expect(lm.LaunchID).To(BeNil())
		})
	})
})
