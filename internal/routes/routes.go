package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gkash/gkash_api/internal/account"
	"github.com/gkash/gkash_api/internal/advisor"
	"github.com/gkash/gkash_api/internal/auth"
	"github.com/gkash/gkash_api/internal/config"
	"github.com/gkash/gkash_api/internal/identity"
	"github.com/gkash/gkash_api/internal/ledger"
	"github.com/gkash/gkash_api/internal/middleware"
	"github.com/gkash/gkash_api/internal/notification"
	"github.com/gkash/gkash_api/internal/otp"
	"github.com/gkash/gkash_api/internal/registration"
	"github.com/gkash/gkash_api/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Optional overrides, mostly for tests.
	OCR     verification.TextExtractor
	Faces   verification.FaceDetector
	Images  verification.ImageStore
	Notify  notification.Notifier
	Advisor advisor.Completer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Cfg.RequirePhoneOTP && d.Cache == nil {
		return fmt.Errorf("REQUIRE_PHONE_OTP needs redis for code storage")
	}

	svc, err := buildServices(d)
	if err != nil {
		return err
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if d.Cfg.IsDev() {
		// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public and registration-scoped routes
	session := middleware.SessionAuth(svc.tokens, svc.identityRepo)
	RegisterAuthRoutes(api, AuthHandlers{
		Registration: registration.NewHandler(svc.registration),
		Login:        auth.NewHandler(svc.identities, svc.tokens),
		Identity:     identity.NewHandler(svc.identities),
	}, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit, d.Logger), session)

	// Protected routes
	protected := api.Group("", session)
	RegisterIdentityRoutes(protected, identity.NewHandler(svc.identities))
	RegisterAccountRoutes(protected, account.NewHandler(svc.accounts))

	var idempotent fiber.Handler
	if d.Cache != nil {
		idempotent = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}
	RegisterTransactionRoutes(protected, ledger.NewHandler(svc.transactions), idempotent)
	RegisterAdvisorRoutes(protected, advisor.NewHandler(svc.advisor))

	return nil
}

type services struct {
	tokens       *auth.Service
	identityRepo identity.Repository
	identities   *identity.Service
	registration *registration.Service
	accounts     *account.Service
	transactions *ledger.Service
	advisor      *advisor.Service
}

func buildServices(d Deps) (services, error) {
	var (
		identityRepo identity.Repository
		accountRepo  account.Repository
		ledgerStore  ledger.Ledger
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		accountRepo = account.NewPostgresRepository(d.DB)
		ledgerStore = ledger.NewPostgresLedger(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		memAccounts := account.NewMemoryRepository()
		accountRepo = memAccounts
		ledgerStore = ledger.NewInMemory(memAccounts)
	}

	images := d.Images
	if images == nil {
		if d.Cfg.ImageBucket != "" {
			store, err := verification.NewS3ImageStore(verification.S3Options{
				Bucket:     d.Cfg.ImageBucket,
				Prefix:     d.Cfg.ImagePrefix,
				AWSOptions: awsOptions(d.Cfg),
			}, d.Logger)
			if err != nil {
				return services{}, fmt.Errorf("image store: %w", err)
			}
			images = store
		} else {
			d.Logger.Warn("IMAGE_BUCKET not set, keeping verification images in memory")
			images = verification.NewMemoryImageStore()
		}
	}

	ocr := d.OCR
	if ocr == nil {
		ocr = verification.NewOCRSpaceClient(d.Cfg.OCRSpaceURL, d.Cfg.OCRSpaceAPIKey, d.Cfg.OCRTimeout)
	}
	faces := d.Faces
	if faces == nil {
		detector, err := faceDetector(d.Cfg, d.Logger)
		if err != nil {
			return services{}, err
		}
		faces = detector
	}
	analyzer := verification.NewAnalyzer(ocr, faces, images, d.Logger)

	notifier := d.Notify
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}
	var phoneGate registration.PhoneVerifier
	if d.Cfg.RequirePhoneOTP {
		phoneGate = otp.NewGate(d.Cache, notifier, d.Cfg.OTPTTL, d.Logger)
	}

	tokens := auth.NewService(d.Cfg)
	vault := auth.NewVault(auth.DefaultCost)
	identities := identity.NewService(identityRepo, vault, analyzer, d.Logger)
	reg := registration.NewService(registration.Options{
		Repo:        identityRepo,
		Vault:       vault,
		Tokens:      tokens,
		Analyzer:    analyzer,
		OTP:         phoneGate,
		PhoneDigits: d.Cfg.PhoneDigits,
		Logger:      d.Logger,
	})

	return services{
		tokens:       tokens,
		identityRepo: identityRepo,
		identities:   identities,
		registration: reg,
		accounts:     account.NewService(accountRepo, d.Logger),
		transactions: ledger.NewService(ledgerStore, d.Logger),
		advisor:      buildAdvisor(d),
	}, nil
}

func awsOptions(cfg config.Config) verification.AWSOptions {
	return verification.AWSOptions{
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.AWSEndpoint,
		AccessKey: cfg.AWSAccessKeyID,
		SecretKey: cfg.AWSSecretAccessKey,
	}
}

// faceDetector picks the configured backend. The static detector is only
// accepted in development.
func faceDetector(cfg config.Config, log *slog.Logger) (verification.FaceDetector, error) {
	switch cfg.FaceDetector {
	case config.FaceDetectorRekognition:
		detector, err := verification.NewRekognitionFaceDetector(awsOptions(cfg), cfg.FaceMinConfidence)
		if err != nil {
			return nil, fmt.Errorf("face detector: %w", err)
		}
		return detector, nil
	case config.FaceDetectorStatic, "":
		if !cfg.IsDev() {
			return nil, fmt.Errorf("a real face detector is required when APP_ENV=%s", cfg.AppEnv)
		}
		log.Warn("using static face detector, every non-empty image counts as a face")
		return verification.StaticFaceDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown face detector %q", cfg.FaceDetector)
	}
}

func buildAdvisor(d Deps) *advisor.Service {
	completer := d.Advisor
	if completer == nil {
		if d.Cfg.LLMAPIKey == "" {
			d.Logger.Warn("LLM_API_KEY not set, advisor requests will fail")
		}
		completer = advisor.NewChatClient(d.Cfg.LLMAPIURL, d.Cfg.LLMAPIKey, d.Cfg.LLMModel, d.Cfg.LLMTimeout)
	}
	var sessions advisor.SessionStore
	if d.Cache != nil {
		sessions = advisor.NewRedisSessions(d.Cache, d.Cfg.AdvisorSessionTTL)
	} else {
		sessions = advisor.NewMemorySessions(d.Cfg.AdvisorSessionTTL)
	}
	return advisor.NewService(completer, sessions, d.Cfg.AdvisorHistoryLimit, d.Logger)
}
