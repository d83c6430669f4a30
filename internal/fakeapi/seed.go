package fakeapi

import "github.com/SigNoz/storefront-client/internal/models"

// Seeded fixtures referenced by tests.
const (
	SeedUsername = "alice"
	SeedPassword = "secret"

	ProductPhone      int64 = 1
	ProductLaptop     int64 = 2
	ProductHeadphones int64 = 3
	ProductBook       int64 = 4
	ProductSoldOut    int64 = 5
)

func (s *Server) seed() {
	s.accounts[SeedUsername] = &account{
		user: models.User{
			ID:        1,
			Username:  SeedUsername,
			Email:     "alice@example.com",
			FirstName: "Alice",
			LastName:  "Liddell",
		},
		password: SeedPassword,
	}

	s.categories = []models.Category{
		{ID: 1, Name: "Electronics", Description: "Latest gadgets and electronic devices", IsActive: true},
		{ID: 2, Name: "Books", Description: "Books across every genre", IsActive: true},
		{ID: 3, Name: "Clothing", Description: "Fashion and apparel", IsActive: true},
	}

	for _, p := range []models.Product{
		{ID: ProductPhone, Name: "Google Pixel 8", Category: "Smartphones", Brand: "Google", SKU: "PIX-8", Price: 699.00, StockQuantity: 12, Rating: 4.5, ReviewCount: 210},
		{ID: ProductLaptop, Name: "Dell XPS 13", Category: "Laptops", Brand: "Dell", SKU: "XPS-13", Price: 1249.99, StockQuantity: 3, Rating: 4.6, ReviewCount: 98},
		{ID: ProductHeadphones, Name: "Sony WH-1000XM5", Category: "Headphones", Brand: "Sony", SKU: "WH-1000XM5", Price: 349.50, StockQuantity: 7, Rating: 4.8, ReviewCount: 530},
		{ID: ProductBook, Name: "Atomic Habits", Category: "Non-Fiction", Brand: "James Clear", SKU: "BK-ATOMIC", Price: 9.99, StockQuantity: 2, Rating: 4.9, ReviewCount: 1200},
		{ID: ProductSoldOut, Name: "Air Max 270", Category: "Shoes", Brand: "Nike", SKU: "AM-270", Price: 150.00, StockQuantity: 0, Rating: 4.2, ReviewCount: 75},
	} {
		p.IsActive = true
		p.Description = p.Brand + " " + p.Name
		s.products[p.ID] = p
	}
}
