package main

import (
	"net/http"
	"os"
	"time"

	"shoppingmall/internal/config"
	"shoppingmall/internal/domain/model"
	"shoppingmall/internal/handler"
	"shoppingmall/internal/infra/cartstorage"
	"shoppingmall/internal/infra/db"
	infrapayment "shoppingmall/internal/infra/payment"
	infraRepo "shoppingmall/internal/infra/repository"
	"shoppingmall/internal/server"
	"shoppingmall/internal/session"
	"shoppingmall/internal/usecase"
	auth "shoppingmall/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

type jwtIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (i *jwtIssuer) Issue(userID string, email string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func main() {
	// .envは無くても良い（本番は環境変数だけ）
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if cfg.GoEnv != "prod" {
		log = log.Level(zerolog.DebugLevel)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Category{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	//カートスナップショットの保存先
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	cartStore := cartstorage.NewRedisStorage(redisClient)

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	profileRepo := infraRepo.NewProfileGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(12)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := &jwtIssuer{
		secret:    []byte(cfg.JWTSecret),
		accessTTL: time.Hour,
	}

	//認証プロバイダとセッション監視
	authProvider := auth.NewProvider(userRepo, profileRepo, hasher, verifier, issuer, idGen, clock, log)
	sessions := session.NewObserver(authProvider)
	defer sessions.Close()

	//決済ウィジェット（コントローラはチェックアウト側が試行ごとに作る）
	widgetClient := infrapayment.NewWidgetClient(
		&http.Client{Timeout: 10 * time.Second},
		cfg.PaymentWidgetBaseURL,
	)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, log)
	cartUC := usecase.NewCartUsecase(cartStore, productRepo, log)
	checkoutUC := usecase.NewCheckoutUsecase(
		txManager, widgetClient, idGen,
		cfg.PaymentWidgetClientKey, cfg.AppBaseURL, log,
	)
	orderUC := usecase.NewOrderUsecase(txManager)

	//Handler生成
	handlers := server.Handlers{
		Auth:     handler.NewAuthHandler(authProvider, sessions),
		Product:  handler.NewProductHandler(productUC),
		Cart:     handler.NewCartHandler(cartUC, productUC),
		Checkout: handler.NewCheckoutHandler(checkoutUC, cartUC),
		Order:    handler.NewOrderHandler(orderUC),
	}

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(addr, cfg, log, handlers); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
