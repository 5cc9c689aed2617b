package connection

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"focustasks/config"
	"focustasks/push"
	"focustasks/store"
)

func DBConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}

// gormStore migrates db and wraps it. The pool is closed when that fails.
func gormStore(db *gorm.DB) (store.Repository, func() error, error) {
	sqlDB, err := db.DB()
	if err != nil {
		// No *sql.DB behind the connection means there is no pool to close.
		return nil, nil, fmt.Errorf("mysql pool: %w", err)
	}
	repo, err := store.NewGorm(db)
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}
	return repo, sqlDB.Close, nil
}

// FirebaseApp initializes the Admin SDK from a service account file, or from
// application default credentials when none is configured.
func FirebaseApp(ctx context.Context, cfg config.Firebase) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %w", err)
	}
	return app, nil
}

// OpenStore builds the repository for cfg.StoreDriver. The returned func
// releases whatever the backend holds open.
func OpenStore(ctx context.Context, cfg config.Config, app *firebase.App, logger *log.Logger) (store.Repository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case "mysql":
		db, err := DBConnection(cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, err
		}
		return gormStore(db)

	case "firestore":
		if app == nil {
			return nil, nil, fmt.Errorf("firestore store needs a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Firestore client: %w", err)
		}
		return store.NewFirestore(client), client.Close, nil

	default:
		repo, err := store.NewJSONFile(cfg.StorePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, noop, nil
	}
}

// NewSender picks the push transport. It returns a nil Sender, and logs why,
// when push is not configured.
func NewSender(ctx context.Context, cfg config.Config, app *firebase.App, logger *log.Logger) (push.Sender, error) {
	switch cfg.Push.Provider {
	case "fcm":
		if app == nil {
			return nil, fmt.Errorf("fcm push needs a firebase app")
		}
		client, err := app.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting Messaging client: %w", err)
		}
		return push.NewFCM(client), nil

	case "webpush":
		v := push.VAPID{
			PublicKey:  cfg.Push.VAPIDPublicKey,
			PrivateKey: cfg.Push.VAPIDPrivateKey,
			Subject:    cfg.Push.VAPIDSubject,
		}
		if !v.Configured() {
			logger.Warn("VAPID keys missing, push reminders disabled")
			return nil, nil
		}
		wp, err := push.NewWebPush(v, nil)
		if err != nil {
			return nil, err
		}
		return wp, nil
	}

	logger.Info("push reminders disabled")
	return nil, nil
}
