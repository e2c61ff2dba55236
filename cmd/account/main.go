package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/simple-account/pkg/account"
	"github.com/tendant/simple-account/pkg/account/api"
	"github.com/tendant/simple-account/pkg/attempts"
	"github.com/tendant/simple-account/pkg/cache"
	"github.com/tendant/simple-account/pkg/config"
	"github.com/tendant/simple-account/pkg/credential"
	"github.com/tendant/simple-account/pkg/mfa"
	"github.com/tendant/simple-account/pkg/notification"
	"github.com/tendant/simple-account/pkg/oauth"
	"github.com/tendant/simple-account/pkg/passcode"
	"github.com/tendant/simple-account/pkg/session"
	"github.com/tendant/simple-account/pkg/storage"
	"github.com/tendant/simple-account/pkg/token"
	"github.com/tendant/simple-account/pkg/totp"
	"github.com/tendant/simple-account/pkg/user"
)

func newLogger(env config.Environment) *slog.Logger {
	if env == config.Production {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
		}))
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		AddSource:  true,
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
}

func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Provider != config.CacheProviderRedis {
		slog.Warn("Using in-memory cache, attempts and passcodes are not shared between instances")
		mem := cache.NewMemoryCache()
		go mem.RunSweeper(ctx, time.Minute)
		return mem, nil
	}
	client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
		Addr:     cfg.RedisAddr(),
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TLS:      cfg.RedisTLS,
	})
	if err != nil {
		return nil, err
	}
	return cache.NewRedisCache(client), nil
}

func newStorage(ctx context.Context, cfg config.S3Config) (storage.ObjectStorage, error) {
	if !cfg.Enabled() {
		slog.Warn("AWS_BUCKET_NAME not set, avatars are kept in memory")
		return storage.NewMemoryStorage(), nil
	}
	return storage.NewS3Storage(ctx, storage.S3Options{
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Endpoint:        cfg.Endpoint,
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed loading config", "error", err)
		os.Exit(-1)
	}
	slog.SetDefault(newLogger(cfg.Environment()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseConfig.ToDatabaseURL())
	if err != nil {
		slog.Error("Failed creating dbpool", "db", cfg.DatabaseConfig.Database, "host", cfg.DatabaseConfig.Host, "port", cfg.DatabaseConfig.Port, "user", cfg.DatabaseConfig.User)
		os.Exit(-1)
	}
	defer pool.Close()
	users := user.NewPostgresRepository(pool)

	kv, err := newCache(ctx, cfg.CacheConfig)
	if err != nil {
		slog.Error("Failed creating cache", "provider", cfg.CacheConfig.Provider, "error", err)
		os.Exit(-1)
	}

	objects, err := newStorage(ctx, cfg.S3Config)
	if err != nil {
		slog.Error("Failed creating object storage", "bucket", cfg.S3Config.Bucket, "error", err)
		os.Exit(-1)
	}

	notifier, err := notification.NewEmailNotifier(cfg.EmailConfig.ToSMTPConfig())
	if err != nil {
		slog.Error("Failed creating email notifier", "host", cfg.EmailConfig.Host, "error", err)
		os.Exit(-1)
	}
	mailer, err := notification.NewMailer(notifier, cfg.AppURL, notification.WithAppName(cfg.AppName))
	if err != nil {
		slog.Error("Failed creating mailer", "error", err)
		os.Exit(-1)
	}

	expiry, err := config.ParseDuration(cfg.JwtConfig.TokenExpiry)
	if err != nil {
		slog.Error("Invalid token expiry", "expiry", cfg.JwtConfig.TokenExpiry, "error", err)
		os.Exit(-1)
	}
	tokens := token.NewService(cfg.JwtConfig.Secret, token.WithIssuer(cfg.AppName))
	sessions := session.NewIssuer(tokens, expiry, cfg.CdnURL)
	codes := totp.NewEngine(cfg.OtpConfig.Issuer)

	google := oauth.NewGoogleProvider(oauth.GoogleOptions{
		ClientID:     cfg.GoogleConfig.ClientID,
		ClientSecret: cfg.GoogleConfig.ClientSecret,
		RedirectURL:  cfg.AppURL,
	})
	facebook := oauth.NewFacebookProvider(oauth.FacebookOptions{})
	verifier := credential.NewVerifier(users, codes, credential.WithGoogle(google), credential.WithFacebook(facebook))

	ledger := attempts.NewLedger(kv, cfg.MinAttemptsToBlockUserLogin)
	mfaEngine := mfa.NewEngine(users, ledger, passcode.NewStore(kv), codes, mailer, sessions,
		mfa.WithEmailTimeout(cfg.OtpConfig.EmailTimeout()))

	svc := account.NewService(account.Deps{
		Users:    users,
		Verifier: verifier,
		MFA:      mfaEngine,
		Ledger:   ledger,
		Tokens:   tokens,
		Sessions: sessions,
		Mailer:   mailer,
		Keys:     codes,
		Storage:  objects,
	}, account.WithCdnURL(cfg.CdnURL))

	tokenAuth := jwtauth.New("HS256", tokens.Secret(), nil)
	handleOpts := []api.Option{api.WithJwtAuth(tokenAuth)}
	if secret := cfg.GoogleConfig.RecaptchaSecretKey; secret != "" {
		handleOpts = append(handleOpts, api.WithRecaptcha(api.NewRecaptchaVerifier(secret)))
		slog.Info("Recaptcha enabled on register, login and forgot-password")
	}
	handle := api.NewHandle(svc, handleOpts...)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	server.R.Mount("/user", api.Handler(handle))

	slog.Info("Starting account service", "env", cfg.Env, "cache", cfg.CacheConfig.Provider, "s3", cfg.S3Config.Enabled())
	server.Run()
}
