package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"budgetbully/internal/domain/account"
	"budgetbully/internal/domain/aggregation"
	"budgetbully/internal/domain/budget"
	"budgetbully/internal/domain/notification"
	"budgetbully/internal/infrastructure/crypto"
	"budgetbully/internal/infrastructure/firebase"
	"budgetbully/internal/infrastructure/plaid"
	"budgetbully/internal/infrastructure/postgres"
	httphandlers "budgetbully/internal/interfaces/http"
	"budgetbully/internal/shared/config"
	"budgetbully/internal/shared/messages"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	WebhookHandler *httphandlers.WebhookHandler

	ItemRepo               *postgres.ItemRepository
	ItemService            *aggregation.ItemService
	TransactionSyncService *aggregation.TransactionSyncService
}

// NewDependencies initializes all application dependencies. The webhook
// handler needs the sync queue, so it is attached later by AttachQueue.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		db.Close()
		return nil, err
	}

	plaidClient, err := plaid.NewClient(cfg.Plaid.ClientID, cfg.Plaid.Secret, cfg.Plaid.Environment)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	itemRepo := postgres.NewItemRepository(db, encryptor)
	accountRepo := postgres.NewAccountRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	alertRepo := postgres.NewAlertRepository(db)

	texts, err := messages.Load(cfg.Notifications.MessagesFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load notification texts: %w", err)
	}

	messenger, err := newMessenger(ctx, cfg, userRepo)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Domain services
	accountService := account.NewService(accountRepo)
	budgetService := budget.NewService(categoryRepo, cfg.Sync.PersistConcurrency)
	selector := notification.NewSelector(categoryRepo, texts)
	notificationService := notification.NewService(alertRepo, messenger, userRepo, selector)

	var locker aggregation.ItemLocker
	if cfg.Sync.AdvisoryLock {
		locker = postgres.NewAdvisoryLocker(db)
	} else {
		locker = aggregation.NewKeyedMutex()
	}

	syncService := aggregation.NewTransactionSyncService(
		plaidClient,
		aggregation.NewReconciler(plaidClient, cfg.Plaid.PageSize),
		itemRepo,
		accountService,
		transactionRepo,
		budgetService,
		notificationService,
		locker,
		cfg.Sync.PersistConcurrency,
	)
	itemService := aggregation.NewItemService(plaidClient, itemRepo, userRepo)

	return &Dependencies{
		DB:                     db,
		ItemRepo:               itemRepo,
		ItemService:            itemService,
		TransactionSyncService: syncService,
	}, nil
}

// AttachQueue builds the handlers that enqueue sync jobs.
func (d *Dependencies) AttachQueue(queue httphandlers.SyncQueuer) {
	d.WebhookHandler = httphandlers.NewWebhookHandler(d.ItemService, queue)
}

// newMessenger returns the FCM client, or a logging stand-in when no
// credentials file is configured.
func newMessenger(ctx context.Context, cfg *config.Config, users *postgres.UserRepository) (notification.Messenger, error) {
	if cfg.Notifications.FirebaseCredentialsFile == "" {
		log.Warn().Msg("FIREBASE_CREDENTIALS_FILE not set, push notifications will only be logged")
		return firebase.LogMessenger{}, nil
	}

	client, err := firebase.NewClient(ctx, cfg.Notifications.FirebaseCredentialsFile, users.ClearPushToken)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Firebase messaging initialized")
	return client, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
