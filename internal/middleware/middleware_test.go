package middleware_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"spy-game/internal/middleware"
)

var _ = Describe("RequestID", func() {
	var (
		logs    *bytes.Buffer
		seenID  string
		handler http.Handler
	)

	BeforeEach(func() {
		logs = &bytes.Buffer{}
		seenID = ""
		handler = middleware.RequestID(zerolog.New(logs))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenID = middleware.GetRequestID(r.Context())
			zerolog.Ctx(r.Context()).Info().Msg("inside")
			w.WriteHeader(http.StatusTeapot)
		}))
	})

	It("keeps a caller supplied id", func() {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(middleware.RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(Equal("abc-123"))
		Expect(seenID).To(Equal("abc-123"))
		Expect(logs.String()).To(ContainSubstring(`"message":"inside"`))
		Expect(logs.String()).To(ContainSubstring(`"request_id":"abc-123"`))
	})

	It("generates an id and logs the status", func() {
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/y", nil))

		Expect(rec.Code).To(Equal(http.StatusTeapot))
		Expect(seenID).To(HaveLen(36))
		Expect(rec.Header().Get(middleware.RequestIDHeader)).To(Equal(seenID))
		Expect(logs.String()).To(ContainSubstring(`"status":418`))
	})

	It("returns nothing outside a request", func() {
		Expect(middleware.GetRequestID(context.Background())).To(BeEmpty())
	})
})
