package provider_test

import (
	"context"
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/angeloszaimis/cep-resolver/internal/backend"
	"github.com/angeloszaimis/cep-resolver/internal/cep"
	"github.com/angeloszaimis/cep-resolver/internal/provider"
)

var _ = Describe("BrasilAPI", func() {
	var (
		server  *ghttp.Server
		adapter *provider.BrasilAPI
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()
		adapter = provider.NewBrasilAPI(
			backend.New("BrasilAPI", mustParseURL(server.URL()+"/api/cep/v1"), 100*time.Millisecond),
			discardLogger)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should map a BrasilAPI response to the unified format", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, "/api/cep/v1/01310100"),
			ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{
				"cep":          "01310100",
				"state":        "SP",
				"city":         "São Paulo",
				"neighborhood": "Bela Vista",
				"street":       "Avenida Paulista",
				"service":      "open-cep",
			}),
		))

		address, err := adapter.FindByCep(ctx, "01310100")
		Expect(err).NotTo(HaveOccurred())
		Expect(address.CEP).To(Equal("01310100"))
		Expect(address.Street).To(Equal("Avenida Paulista"))
		Expect(address.Neighborhood).To(Equal("Bela Vista"))
		Expect(address.City).To(Equal("São Paulo"))
		Expect(address.State).To(Equal("SP"))
	})

	It("should leave fields BrasilAPI does not carry as nil", func() {
		server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]string{
			"cep": "01310100", "state": "SP", "city": "São Paulo",
		}))

		address, err := adapter.FindByCep(ctx, "01310100")
		Expect(err).NotTo(HaveOccurred())
		Expect(address.Complement).To(BeNil())
		Expect(address.IBGECode).To(BeNil())
		Expect(address.GIACode).To(BeNil())
		Expect(address.DDDCode).To(BeNil())
		Expect(address.SIAFICode).To(BeNil())
	})

	DescribeTable("404 vs 400 vs 5xx",
		func(status int, expected error) {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(status, map[string]string{"name": "CepPromiseError"}))

			_, err := adapter.FindByCep(ctx, "01310100")
			Expect(errors.Is(err, expected)).To(BeTrue(), "got %v", err)
		},
		Entry("404 is CEP_NOT_FOUND", http.StatusNotFound, cep.ErrNotFound),
		Entry("400 is INVALID_CEP", http.StatusBadRequest, cep.ErrInvalidCEP),
		Entry("500 is UPSTREAM_UNAVAILABLE", http.StatusInternalServerError, cep.ErrUpstreamUnavailable),
	)

	It("should report GATEWAY_TIMEOUT when the budget is exceeded", func() {
		server.AppendHandlers(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		})

		_, err := adapter.FindByCep(ctx, "01310100")
		Expect(errors.Is(err, cep.ErrGatewayTimeout)).To(BeTrue(), "got %v", err)

		var lookupErr *cep.LookupError
		Expect(errors.As(err, &lookupErr)).To(BeTrue())
		Expect(lookupErr.Details).To(HaveKeyWithValue("timeout", "100ms"))
	})

	It("should check availability with the sample CEP", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, "/api/cep/v1/01310100"),
			ghttp.RespondWith(http.StatusOK, "{}"),
		))
		Expect(adapter.IsAvailable(ctx)).To(BeTrue())
	})
})

var _ = Describe("New", func() {
	It("should build every registered kind", func() {
		for _, kind := range provider.Kinds {
			adapter, err := provider.New(kind, mustParseURL(provider.DefaultBaseURLs[kind]), time.Second, discardLogger)
			Expect(err).NotTo(HaveOccurred())
			Expect(adapter.Name()).NotTo(BeEmpty())
			Expect(adapter.IsHealthy()).To(BeTrue())
		}
	})

	It("should reject unknown kinds", func() {
		_, err := provider.New("correios", mustParseURL("http://localhost"), time.Second, discardLogger)
		Expect(err).To(HaveOccurred())
	})
})
