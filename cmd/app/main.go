package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/oguzkse/bazaar-backend/internal/address"
	"github.com/oguzkse/bazaar-backend/internal/cart"
	"github.com/oguzkse/bazaar-backend/internal/catalog"
	"github.com/oguzkse/bazaar-backend/internal/config"
	"github.com/oguzkse/bazaar-backend/internal/order"
	"github.com/oguzkse/bazaar-backend/internal/payment"
	"github.com/oguzkse/bazaar-backend/internal/settlement"
	"github.com/oguzkse/bazaar-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	app := fiber.New()
	setupCORS(app)
	app.Use(requestLogger)

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()
	mustBootstrapSchema(db)

	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	addressRepo := address.NewPostgresRepository(db)
	addressHandler := address.NewHandler(address.NewService(addressRepo))

	cartRepo := cart.NewPostgresRepository(db)
	cartHandler := cart.NewHandler(cart.NewService(cartRepo, catalogService))

	orderRepo := order.NewPostgresRepository(db)
	orderHandler := order.NewHandler(order.NewService(orderRepo))

	paymentRepo := payment.NewPostgresRepository(db)
	gateway := payment.NewIyzicoGateway(cfg.IyzicoBaseURL, cfg.IyzicoAPIKey, cfg.IyzicoSecretKey)

	settlementService := settlement.NewService(db, cartRepo, catalogRepo, orderRepo, paymentRepo,
		addressRepo, userRepo, gateway, settlement.Config{
			CallbackURL:   cfg.SiteURL + "/payment/callback",
			CancelWindow:  cfg.CancelWindow,
			RefundRestock: cfg.RefundRestock,
		})
	settlementHandler := settlement.NewHandler(settlementService)

	// public routes first, then the JWT gate, then protected routes
	userHandler.RegisterPublicRoutes(app)
	catalogHandler.RegisterPublicRoutes(app)
	settlementHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	userHandler.RegisterProtectedRoutes(app)
	addressHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	settlementHandler.RegisterProtectedRoutes(app)

	log.Printf("starting server on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	fmt.Printf("URL = %s, Method = %s, Duration = %v\n", c.OriginalURL(), c.Method(), time.Since(start))
	return err
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}
	if err := db.Ping(); err != nil {
		panic(err)
	}
	return db
}

// mustBootstrapSchema creates the tables on first start. Inventory,
// carts, orders and payments share one database so every settlement
// step can run in a single transaction.
func mustBootstrapSchema(db *sql.DB) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS addresses (
			address_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(user_id),
			address_type TEXT NOT NULL DEFAULT 'SHIPPING',
			street TEXT NOT NULL,
			city TEXT NOT NULL,
			postal_code TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS product_variants (
			variant_id SERIAL PRIMARY KEY,
			product_name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			parent_category TEXT NOT NULL DEFAULT '',
			price NUMERIC(12,2) NOT NULL,
			stock INT NOT NULL DEFAULT 0 CHECK (stock >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			cart_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL UNIQUE REFERENCES users(user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			cart_item_id SERIAL PRIMARY KEY,
			cart_id INT NOT NULL REFERENCES carts(cart_id) ON DELETE CASCADE,
			variant_id INT NOT NULL REFERENCES product_variants(variant_id),
			quantity INT NOT NULL CHECK (quantity > 0),
			UNIQUE (cart_id, variant_id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			order_id SERIAL PRIMARY KEY,
			user_id INT NOT NULL REFERENCES users(user_id),
			status TEXT NOT NULL DEFAULT 'PENDING',
			total_price NUMERIC(12,2) NOT NULL,
			shipping_address_id INT NOT NULL REFERENCES addresses(address_id),
			billing_address_id INT NOT NULL REFERENCES addresses(address_id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_item_id SERIAL PRIMARY KEY,
			order_id INT NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
			variant_id INT NOT NULL REFERENCES product_variants(variant_id),
			product_name TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL CHECK (quantity > 0),
			unit_price NUMERIC(12,2) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			payment_id SERIAL PRIMARY KEY,
			order_id INT NOT NULL REFERENCES orders(order_id),
			amount NUMERIC(12,2) NOT NULL,
			currency TEXT NOT NULL DEFAULT 'TRY',
			provider TEXT NOT NULL DEFAULT 'IYZICO',
			status TEXT NOT NULL DEFAULT 'PENDING',
			provider_token TEXT NOT NULL DEFAULT '',
			provider_transaction_id TEXT NOT NULL DEFAULT '',
			provider_payment_id TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			panic(err)
		}
	}
}
