package finn

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/nordvik/finndeals/internal/model"
)

// Demo inventory mirroring what a typical electronics search surfaces.
var demoProducts = []string{
	"iPhone 15 Pro Max 256GB",
	"iPhone 14 Pro 128GB",
	"iPhone 13 64GB",
	"Samsung Galaxy S24 Ultra",
	"MacBook Pro M3 14\"",
	"MacBook Air M2",
	"iPad Pro 12.9\" 2024",
	"PlayStation 5",
	"Xbox Series X",
	"Nintendo Switch OLED",
	"Sony WH-1000XM5",
	"AirPods Pro 2",
	"DJI Mini 4 Pro",
	"GoPro Hero 12",
	"Canon EOS R6 II",
	"IKEA Kallax hylle",
	"Herman Miller Aeron",
	"Gaming PC RTX 4080",
	"LG C3 OLED 65\"",
	"Dyson V15 Detect",
}

var demoLocations = []string{
	"Oslo", "Bergen", "Trondheim", "Stavanger", "Kristiansand",
	"Tromsø", "Drammen", "Fredrikstad", "Sandnes", "Bærum",
}

var demoConditions = []string{"Som ny", "Pent brukt", "Brukt", "Ny"}

// DemoListings fabricates a raw batch for offline runs and demos.
// Roughly a third of the listings are priced well below their product's
// going rate so the pipeline has deals to find. The same seed always
// produces the same batch.
func DemoListings(n int, seed int64) []model.RawListing {
	if n <= 0 {
		n = 50
	}
	rng := rand.New(rand.NewSource(seed))
	now := time.Now()

	items := make([]model.RawListing, 0, n)
	for i := 0; i < n; i++ {
		product := demoProducts[rng.Intn(len(demoProducts))]
		price := 500 + rng.Intn(24501)
		if rng.Float64() < 0.3 {
			price = price * 7 / 10
		}

		sellerText := "privat"
		if rng.Intn(2) == 0 {
			sellerText = "bedrift"
		}

		finnkode := strconv.Itoa(100000000 + rng.Intn(900000000))
		items = append(items, model.RawListing{
			ID:          finnkode,
			Title:       product,
			PriceText:   spacedKroner(price),
			Location:    demoLocations[rng.Intn(len(demoLocations))],
			Condition:   demoConditions[rng.Intn(len(demoConditions))],
			Posted:      fmt.Sprintf("%d dager siden", 1+rng.Intn(30)),
			SellerText:  sellerText,
			URL:         "https://www.finn.no/bap/forsale/ad.html?finnkode=" + finnkode,
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%d/400/300", i),
			Description: fmt.Sprintf("Selger %s. Fungerer perfekt, ingen riper eller skader.", product),
			ScrapedAt:   now,
		})
	}
	return items
}

// spacedKroner renders a price the way FINN prints it, thousands
// separated by spaces.
func spacedKroner(n int) string {
	digits := strconv.Itoa(n)
	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, d)
	}
	return string(out) + " kr"
}
