// Package apitest serves the fake storefront API on a local test server.
package apitest

import (
	"net/http/httptest"

	"github.com/SigNoz/storefront-client/internal/fakeapi"
)

const (
	SeedUsername = fakeapi.SeedUsername
	SeedPassword = fakeapi.SeedPassword
	WelcomeReply = fakeapi.WelcomeReply

	ProductPhone      = fakeapi.ProductPhone
	ProductLaptop     = fakeapi.ProductLaptop
	ProductHeadphones = fakeapi.ProductHeadphones
	ProductBook       = fakeapi.ProductBook
	ProductSoldOut    = fakeapi.ProductSoldOut
)

// Server is a seeded fakeapi.Server listening on a loopback httptest server.
type Server struct {
	*fakeapi.Server
	HTTP *httptest.Server
}

// New starts a fake storefront. Call Close when done.
func New() *Server {
	fake := fakeapi.NewServer()
	return &Server{Server: fake, HTTP: httptest.NewServer(fake.Handler())}
}

// BaseURL is the API root, suitable for api.New.
func (s *Server) BaseURL() string { return s.HTTP.URL + "/api" }

// Close shuts the listener down.
func (s *Server) Close() { s.HTTP.Close() }
