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
	"budgetbully/internal/shared/config"
	"budgetbully/internal/shared/messages"
)

// adminDeps is the subset of the API wiring the admin commands need.
type adminDeps struct {
	db          *postgres.DB
	items       *postgres.ItemRepository
	syncService *aggregation.TransactionSyncService
	itemService *aggregation.ItemService
}

func connect(cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Info().Str("db", cfg.Database.DBName).Msg("Connected to database")
	return db, nil
}

func newAdminDeps(ctx context.Context, cfg *config.Config) (*adminDeps, error) {
	db, err := connect(cfg)
	if err != nil {
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
	texts, err := messages.Load(cfg.Notifications.MessagesFile)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load notification texts: %w", err)
	}

	userRepo := postgres.NewUserRepository(db)
	itemRepo := postgres.NewItemRepository(db, encryptor)
	categoryRepo := postgres.NewCategoryRepository(db)

	var messenger notification.Messenger = firebase.LogMessenger{}
	if cfg.Notifications.FirebaseCredentialsFile != "" {
		client, err := firebase.NewClient(ctx, cfg.Notifications.FirebaseCredentialsFile, userRepo.ClearPushToken)
		if err != nil {
			db.Close()
			return nil, err
		}
		messenger = client
	}

	notifier := notification.NewService(
		postgres.NewAlertRepository(db),
		messenger,
		userRepo,
		notification.NewSelector(categoryRepo, texts),
	)

	// The API process may be syncing the same item; only the advisory lock
	// serialises across processes.
	var locker aggregation.ItemLocker = postgres.NewAdvisoryLocker(db)
	if !cfg.Sync.AdvisoryLock {
		locker = aggregation.NewKeyedMutex()
	}

	syncService := aggregation.NewTransactionSyncService(
		plaidClient,
		aggregation.NewReconciler(plaidClient, cfg.Plaid.PageSize),
		itemRepo,
		account.NewService(postgres.NewAccountRepository(db)),
		postgres.NewTransactionRepository(db),
		budget.NewService(categoryRepo, cfg.Sync.PersistConcurrency),
		notifier,
		locker,
		cfg.Sync.PersistConcurrency,
	)

	return &adminDeps{
		db:          db,
		items:       itemRepo,
		syncService: syncService,
		itemService: aggregation.NewItemService(plaidClient, itemRepo, userRepo),
	}, nil
}

func (d *adminDeps) Close() {
	if d.db != nil {
		d.db.Close()
	}
}
