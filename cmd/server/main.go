package main

import (
	"github.com/joho/godotenv"

	"rentory/internal/auth"
	bookinghandler "rentory/internal/bookings/handler"
	bookingrepo "rentory/internal/bookings/repository"
	bookingservice "rentory/internal/bookings/service"
	bookingvalidator "rentory/internal/bookings/validator"
	customerhandler "rentory/internal/customers/handler"
	customerrepo "rentory/internal/customers/repository"
	customerservice "rentory/internal/customers/service"
	itemhandler "rentory/internal/items/handler"
	itemrepo "rentory/internal/items/repository"
	itemservice "rentory/internal/items/service"
	"rentory/internal/mail"
	scannerhandler "rentory/internal/scanner/handler"
	scannerservice "rentory/internal/scanner/service"
	scannerstore "rentory/internal/scanner/store"
	settingshandler "rentory/internal/settings/handler"
	settingsrepo "rentory/internal/settings/repository"
	settingsservice "rentory/internal/settings/service"
	"rentory/pkg/app"
	"rentory/pkg/config"
	"rentory/pkg/contracts"
	mongodb "rentory/pkg/db/mongo"
	"rentory/pkg/events"
)

const ServiceName = "rentory"

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	publisher := initPublisher(cfg)
	defer publisher.Close()

	cfg.Log.Info("Starting Rentory server")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandlers(cfg, publisher)...)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("No Kafka brokers configured, events disabled")
		return events.NewNoopPublisher()
	}
	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka publisher", "error", err)
	}
	return publisher
}

func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	txManager := mongodb.NewTransactionManager(cfg.Client.Mongo)

	userRepo := auth.NewMongoUserRepository(cfg)
	itemRepository := itemrepo.NewMongoItemRepository(cfg)
	customerRepository := customerrepo.NewMongoCustomerRepository(cfg)
	bookingRepository := bookingrepo.NewMongoBookingRepository(cfg)
	bookingItemRepository := bookingrepo.NewMongoBookingItemRepository(cfg)
	settingsRepository := settingsrepo.NewMongoSettingsRepository(cfg)

	authService := auth.NewService(userRepo, cfg)
	authMw := auth.NewMiddleware(authService, cfg.Log)

	itemService := itemservice.NewItemService(itemRepository, cfg)
	customerService := customerservice.NewCustomerService(customerRepository, cfg)
	settingsService := settingsservice.NewSettingsService(settingsRepository, cfg)

	mailer := mail.NewMailer(cfg, cfg.Log)
	bookingService := bookingservice.NewBookingService(
		bookingRepository,
		bookingItemRepository,
		customerRepository,
		itemRepository,
		txManager,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		mailer,
		settingsService,
		cfg,
	)

	sessions := scannerstore.NewStore(cfg.ScanSessionTTL)
	scannerService := scannerservice.NewScannerService(
		sessions,
		itemRepository,
		bookingRepository,
		bookingItemRepository,
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		auth.NewHandler(authService, authMw, cfg.Log),
		itemhandler.NewItemHandler(itemService, authMw, cfg.Log),
		customerhandler.NewCustomerHandler(customerService, authMw, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, authMw, cfg.Log),
		scannerhandler.NewScannerHandler(scannerService, authMw, cfg, cfg.Log),
		settingshandler.NewSettingsHandler(settingsService, authMw, cfg.Log),
	}
}
