package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"spy-game/internal/api"
	"spy-game/internal/config"
	"spy-game/internal/domain"
)

var _ = Describe("ParseWords", func() {
	It("pulls the array out of surrounding prose", func() {
		words, err := api.ParseWords("Sure! Here you go:\n```json\n[\"Bank\", \" Zoo \", \"Bank\", \"\"]\n```")
		Expect(err).ToNot(HaveOccurred())
		Expect(words).To(Equal([]string{"Bank", "Zoo"}))
	})

	It("caps the list at fifty words", func() {
		items := make([]string, 80)
		for i := range items {
			items[i] = strings.Repeat("w", i+1)
		}
		raw, err := json.Marshal(items)
		Expect(err).ToNot(HaveOccurred())

		words, err := api.ParseWords(string(raw))
		Expect(err).ToNot(HaveOccurred())
		Expect(words).To(HaveLen(50))
	})

	DescribeTable("rejects malformed payloads",
		func(text string) {
			_, err := api.ParseWords(text)
			Expect(err).To(MatchError(api.ErrMalformedContent))
		},
		Entry("no array", "I cannot help with that"),
		Entry("objects instead of strings", `[{"a":1}]`),
		Entry("only blanks", `["", "  "]`),
	)
})

var _ = Describe("ParseMapZones", func() {
	It("accepts zones inside the grid", func() {
		zones, err := api.ParseMapZones(`[{"id":"1","name":"Lobby","description":"front","x":10,"y":90},{"id":"2","name":"Vault","x":55.5,"y":40}]`)
		Expect(err).ToNot(HaveOccurred())
		Expect(zones).To(Equal([]domain.MapZone{
			{ID: "1", Name: "Lobby", Description: "front", X: 10, Y: 90},
			{ID: "2", Name: "Vault", X: 55.5, Y: 40},
		}))
	})

	It("keeps at most five zones", func() {
		var b strings.Builder
		b.WriteString("[")
		for i := 0; i < 7; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(`{"id":"z","name":"Zone","x":50,"y":50}`)
		}
		b.WriteString("]")

		zones, err := api.ParseMapZones(b.String())
		Expect(err).ToNot(HaveOccurred())
		Expect(zones).To(HaveLen(5))
	})

	DescribeTable("rejects unusable zones",
		func(text string) {
			_, err := api.ParseMapZones(text)
			Expect(err).To(MatchError(api.ErrMalformedContent))
		},
		Entry("empty", `[]`),
		Entry("off grid", `[{"id":"1","name":"Roof","x":95,"y":50}]`),
		Entry("below grid", `[{"id":"1","name":"Cellar","x":50,"y":5}]`),
		Entry("missing name", `[{"id":"1","x":50,"y":50}]`),
		Entry("not json", `[oops]`),
	)
})

var _ = Describe("GeminiClient", func() {
	var (
		srv      *httptest.Server
		reply    string
		status   int
		lastBody string
		lastKey  string
		lastPath string
		cfg      *config.Config
	)

	BeforeEach(func() {
		reply = ""
		status = http.StatusOK
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			lastBody = string(body)
			lastKey = r.Header.Get("x-goog-api-key")
			lastPath = r.URL.Path

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			resp := map[string]any{
				"candidates": []any{
					map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": reply}}}},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
		}))
		DeferCleanup(srv.Close)

		cfg = &config.Config{
			GeminiAPIKey:  "secret",
			GeminiModel:   "test-model",
			GeminiBaseURL: srv.URL + "/v1beta/models/",
		}
	})

	ctx := func() context.Context {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		DeferCleanup(cancel)
		return c
	}

	It("posts the prompt and parses words", func() {
		reply = `Here: ["Harbor", "Mine"]`
		client := api.NewGeminiClient(cfg, zerolog.Nop())

		words, err := client.GenerateWords(ctx(), domain.DifficultyHard)
		Expect(err).ToNot(HaveOccurred())
		Expect(words).To(Equal([]string{"Harbor", "Mine"}))

		Expect(lastPath).To(Equal("/v1beta/models/test-model:generateContent"))
		Expect(lastKey).To(Equal("secret"))
		Expect(lastBody).To(ContainSubstring("Hard"))
		Expect(lastBody).To(ContainSubstring(`"contents"`))
	})

	It("parses map zones for a word", func() {
		reply = `[{"id":"1","name":"Dock","description":"boats","x":20,"y":30}]`
		client := api.NewGeminiClient(cfg, zerolog.Nop())

		zones, err := client.GenerateMapZones(ctx(), "Harbor")
		Expect(err).ToNot(HaveOccurred())
		Expect(zones).To(HaveLen(1))
		Expect(zones[0].Name).To(Equal("Dock"))
		Expect(lastBody).To(ContainSubstring("Harbor"))
	})

	It("reports upstream errors", func() {
		status = http.StatusInternalServerError
		client := api.NewGeminiClient(cfg, zerolog.Nop())

		_, err := client.GenerateWords(ctx(), domain.DifficultyEasy)
		Expect(err).To(HaveOccurred())
	})

	It("reports malformed replies", func() {
		reply = "no idea"
		client := api.NewGeminiClient(cfg, zerolog.Nop())

		_, err := client.GenerateMapZones(ctx(), "Harbor")
		Expect(err).To(MatchError(api.ErrMalformedContent))
	})

	It("returns as soon as the context is cancelled", func() {
		release := make(chan struct{})
		slow := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			<-release
		}))
		DeferCleanup(slow.Close)
		DeferCleanup(func() { close(release) })

		cfg.GeminiBaseURL = slow.URL + "/v1beta/models/"
		client := api.NewGeminiClient(cfg, zerolog.Nop())

		c, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		start := time.Now()
		_, err := client.GenerateWords(c, domain.DifficultyEasy)
		Expect(err).To(MatchError(context.Canceled))
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
	})
})

var _ = Describe("NewGenerator", func() {
	It("is disabled without an API key", func() {
		gen := api.NewGenerator(&config.Config{}, zerolog.Nop())

		_, err := gen.GenerateWords(context.Background(), domain.DifficultyEasy)
		Expect(err).To(MatchError(api.ErrGenerationDisabled))
		_, err = gen.GenerateMapZones(context.Background(), "Bank")
		Expect(err).To(MatchError(api.ErrGenerationDisabled))
	})

	It("uses Gemini when a key is set", func() {
		gen := api.NewGenerator(&config.Config{GeminiAPIKey: "k", GeminiModel: "m"}, zerolog.Nop())
		Expect(gen).To(BeAssignableToTypeOf(&api.GeminiClient{}))
	})
})
