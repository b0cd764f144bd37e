package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"syscall"
	"time"

	"hbs/src/boot"
	"hbs/src/common"
	"hbs/src/config"
	"hbs/src/controllers"
	"hbs/src/lib"
	awslib "hbs/src/lib/aws"
	"hbs/src/lib/mailer"
	"hbs/src/middlewares"
	"hbs/src/repositories"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	apiPrefix string = "/api/v1"
)

// bookableDate accepts RFC 3339 timestamps that are still in the future.
var bookableDate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return datetime.After(time.Now())
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDate)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if config.MaintenanceMode() {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	})
	return g
}

func corsMiddleware(g *gin.Engine) *gin.Engine {
	if config.IsLocal() {
		g.Use(cors.Default())
		return g
	}
	appHost := config.AppHost()
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOriginFunc = func(origin string) bool {
		if appHost == "" {
			return false
		}
		match, _ := regexp.MatchString("^"+regexp.QuoteMeta(appHost)+"$", origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	g.Use(cors.New(cc))
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

// registerRoutes mounts the guest, webhook and admin surfaces.
func registerRoutes(g *gin.Engine, bc *controllers.BookingController, ingestor *common.WebhookIngestor, profiles middlewares.ProfileFinder) {
	apiv1 := apiv1Group(g)
	bookingHandlers(apiv1, bc)
	programHandlers(apiv1, bc)
	checkoutHandlers(apiv1, bc)
	stripeWebhookRoute(apiv1, ingestor)

	admin := apiv1.Group("/admin")
	admin.Use(middlewares.AdminMiddleware(profiles))
	adminHandlers(admin, bc)
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	if err := os.MkdirAll(path.Dir(apiLogs), 0o755); err == nil {
		if f, err := os.Create(apiLogs); err == nil {
			gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
		}
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func newBookingController(repo *repositories.BookingRepository) *controllers.BookingController {
	opts := []controllers.Option{}
	if client := lib.AWSGetSNSClient(); client != nil && config.ReconciliationTopicArn() != "" {
		opts = append(opts, controllers.WithAlerter(awslib.NewSNSPublisher(client, config.ReconciliationTopicArn())))
	}
	return controllers.NewBookingController(
		repo,
		lib.NewStripeGateway(lib.GetStripeClient()),
		mailer.NewDispatcher(mailer.New()),
		opts...,
	)
}

func main() {
	worker := flag.Bool("worker", false, "run the email queue consumers and scheduled jobs instead of the API")
	flag.Parse()

	if config.IsLocal() {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot.LoadSecrets(ctx)
	db := boot.InitDb()
	if _, err := common.UpdateMissingSlugs(ctx, db); err != nil {
		log.Printf("Error updating slugs: %s\n", err.Error())
	}

	repo := repositories.NewBookingRepository(db)
	bc := newBookingController(repo)

	if *worker {
		if err := boot.InitWorker(ctx, bc); err != nil {
			log.Fatalf("Failed to start worker: %s", err)
		}
		<-ctx.Done()
		boot.StopScheduler()
		return
	}

	ingestor := common.NewWebhookIngestor(
		config.StripeWebhookSecret(),
		bc,
		lib.NewEventDeduper(lib.GetRedisClient(), "stripe:event"),
	)

	registerValidators()
	router := setupRouter()
	router = corsMiddleware(router)
	router = maintenanceModeMiddleware(router)
	registerRoutes(router, bc, ingestor, repo)

	srv := &http.Server{
		Addr:    ":" + config.Port(),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %s", err)
		}
	}()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down: %s\n", err.Error())
	}
}
