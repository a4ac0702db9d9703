package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	"github.com/shopspring/decimal"

	"github.com/rainballs/jivot-bez-shum/internal/models"
	"github.com/rainballs/jivot-bez-shum/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("expected 'add-product', 'list-products' or 'set-active' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-product":
		cmd := flag.NewFlagSet("add-product", flag.ExitOnError)
		name := cmd.String("name", "", "Product name")
		slug := cmd.String("slug", "", "URL slug (unique)")
		priceBGN := cmd.String("price-bgn", "", "Price in BGN, e.g. 49.90")
		priceEUR := cmd.String("price-eur", "", "Price in EUR, e.g. 25.50")
		imagePath := cmd.String("image", "", "Optional image file (png/jpg)")
		inactive := cmd.Bool("inactive", false, "Create the product deactivated")
		cmd.Parse(os.Args[2:])
		if *name == "" || *slug == "" || *priceBGN == "" || *priceEUR == "" {
			fmt.Println("name, slug, price-bgn and price-eur are required")
			cmd.PrintDefaults()
			os.Exit(1)
		}
		addProduct(*name, *slug, *priceBGN, *priceEUR, *imagePath, !*inactive)
	case "list-products":
		listProducts()
	case "set-active":
		cmd := flag.NewFlagSet("set-active", flag.ExitOnError)
		id := cmd.Int("id", 0, "Product ID")
		active := cmd.Bool("active", true, "Active flag")
		cmd.Parse(os.Args[2:])
		if *id == 0 {
			fmt.Println("id is required")
			cmd.PrintDefaults()
			os.Exit(1)
		}
		setActive(*id, *active)
	default:
		fmt.Println("expected 'add-product', 'list-products' or 'set-active' subcommand")
		os.Exit(1)
	}
}

func openStore() *store.Store {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./shop.db"
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	// Ensure tables exist if running the cli before the server
	if err := db.Migrate("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func addProduct(name, slug, priceBGN, priceEUR, imagePath string, active bool) {
	db := openStore()
	defer db.Close()

	bgn, err := decimal.NewFromString(priceBGN)
	if err != nil {
		log.Fatalf("Invalid BGN price: %v", err)
	}
	eur, err := decimal.NewFromString(priceEUR)
	if err != nil {
		log.Fatalf("Invalid EUR price: %v", err)
	}
	if !bgn.IsPositive() || !eur.IsPositive() {
		log.Fatal("Prices must be positive")
	}

	imageURL := ""
	if imagePath != "" {
		imageURL, err = importImage(imagePath)
		if err != nil {
			log.Fatalf("Failed to import image: %v", err)
		}
	}

	p := &models.Product{
		Name:     name,
		Slug:     slug,
		PriceBGN: bgn,
		PriceEUR: eur,
		ImageURL: imageURL,
		Active:   active,
	}
	if err := db.CreateProduct(context.Background(), p); err != nil {
		log.Fatalf("Failed to create product: %v", err)
	}

	fmt.Printf("Product '%s' created with id %d.\n", name, p.ID)
}

// importImage decodes the source image, scales it down to 800px width and
// stores it as a jpeg under static/products/ with a unique name.
func importImage(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var img image.Image
	switch filepath.Ext(path) {
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	default:
		return "", fmt.Errorf("unsupported image format %q, only png/jpg/jpeg are allowed", filepath.Ext(path))
	}
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	resized := resize.Resize(800, 0, img, resize.Lanczos3)

	if err := os.MkdirAll("static/products", 0o755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s.jpg", uuid.New().String())
	outPath := filepath.Join("static/products", filename)

	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	return "/static/products/" + filename, nil
}

func listProducts() {
	db := openStore()
	defer db.Close()

	products, err := db.ListProducts(context.Background())
	if err != nil {
		log.Fatalf("Failed to list products: %v", err)
	}
	for _, p := range products {
		state := "active"
		if !p.Active {
			state = "inactive"
		}
		fmt.Printf("%4d  %-30s %10s BGN %10s EUR  %s\n", p.ID, p.Name, p.PriceBGN, p.PriceEUR, state)
	}
}

func setActive(id int, active bool) {
	db := openStore()
	defer db.Close()

	if err := db.SetProductActive(context.Background(), id, active); err != nil {
		log.Fatalf("Failed to update product: %v", err)
	}
	fmt.Printf("Product %d active=%v.\n", id, active)
}
