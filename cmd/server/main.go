package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/rainballs/jivot-bez-shum/internal/checkout"
	"github.com/rainballs/jivot-bez-shum/internal/config"
	"github.com/rainballs/jivot-bez-shum/internal/handlers"
	"github.com/rainballs/jivot-bez-shum/internal/notify"
	"github.com/rainballs/jivot-bez-shum/internal/payments"
	"github.com/rainballs/jivot-bez-shum/internal/store"
)

func main() {
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// TextHandler for console readability; JSONHandler might be preferred in production.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Init DB
	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}

	if err := db.Migrate("migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Init Templates
	templates := handlers.NewTemplateCache()
	if err := templates.Load("templates"); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 5. Domain services
	var notifier notify.Notifier
	if cfg.SMTPConfigured() {
		notifier = &notify.Mailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.FromEmail,
			To:       cfg.OrderNotifyEmail,
			SiteURL:  cfg.SiteURL,
		}
	} else {
		slog.Warn("SMTP not configured, order notifications go to the log")
		notifier = &notify.LogNotifier{SiteURL: cfg.SiteURL}
	}

	svc := &checkout.Service{
		Store:    db,
		Gateway:  payments.NewStripeGateway(cfg.StripePublicKey, cfg.StripeSecretKey),
		Notifier: notifier,
		CODOnly:  cfg.CODOnly,
	}

	// 6. Setup Handlers
	homeHandler := &handlers.HomeHandler{
		Store:        db,
		Templates:    templates,
		SessionStore: sessionStore,
	}
	checkoutHandler := &handlers.CheckoutHandler{
		Store:        db,
		Service:      svc,
		Templates:    templates,
		SessionStore: sessionStore,
		SiteURL:      cfg.SiteURL,
	}
	webhookHandler := &handlers.WebhookHandler{
		Service:       svc,
		WebhookSecret: cfg.StripeWebhookSecret,
	}

	mux := http.NewServeMux()

	// Static Files
	fileServer := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static", fileServer))

	// One order submission per window per client
	rateLimiter := handlers.NewRateLimiter(10 * time.Second)

	// Public Routes
	mux.HandleFunc("/", homeHandler.Index)
	mux.HandleFunc("GET /checkout", checkoutHandler.InfoForm)
	mux.HandleFunc("POST /checkout", rateLimiter.Middleware(checkoutHandler.SubmitInfo))
	mux.HandleFunc("GET /checkout/payment", checkoutHandler.PaymentForm)
	mux.HandleFunc("POST /checkout/payment", checkoutHandler.ChoosePayment)
	mux.HandleFunc("GET /checkout/thank-you", checkoutHandler.ThankYou)

	// Stripe
	mux.HandleFunc("GET /pay/stripe/create-session", checkoutHandler.CreateStripeSession)
	mux.HandleFunc("POST /pay/stripe/webhook", webhookHandler.HandleStripe)

	// 7. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure),
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> Webhook CSRF exemption -> CSRF -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			handlers.CSRFExempt("/pay/stripe/webhook",
				CSRF(mux),
			),
		),
	)

	// 8. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "cod_only", cfg.CODOnly)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
