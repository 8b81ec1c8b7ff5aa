package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"

	"dsb/src/booking"
	"dsb/src/catalog"
	"dsb/src/config"
	"dsb/src/db"
	"dsb/src/ledger"
	"dsb/src/lib"
	"dsb/src/middlewares"
	"dsb/src/models"
	"dsb/src/types"

	"github.com/covalenthq/lumberjack/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

const (
	apiPrefix string = "/api/v1"
)

// bookabledate accepts only parseable dates that are still in the future.
var bookableDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	return time.Now().Before(datetime)
}

var catalogAccessor *catalog.Accessor
var orchestrator *booking.Orchestrator

func getCatalog() *catalog.Accessor {
	if catalogAccessor != nil {
		return catalogAccessor
	}
	catalogAccessor = catalog.NewAccessor(db.GetDb(), lib.NewCatalogCache(), lib.Audit)
	return catalogAccessor
}

func getOrchestrator() *booking.Orchestrator {
	if orchestrator != nil {
		return orchestrator
	}
	conn := db.GetDb()
	providers := []booking.PaymentProvider{
		&lib.RazorpayProvider{},
		&lib.StripeProvider{},
	}
	orchestrator = booking.
		NewOrchestrator(conn, getCatalog(), ledger.NewRecorder(conn), providers, lib.Audit).
		WithNotifier(func(b *models.Booking) {
			go lib.SendBookingConfirmation(b)
			go registerStudent(b)
		})
	return orchestrator
}

// registerStudent records the customer as a learner after their first
// confirmed booking. Repeat customers keep a single row keyed by email.
func registerStudent(b *models.Booking) {
	conn := db.GetDb()
	student := models.Student{
		Name:  b.CustomerName,
		Email: b.CustomerEmail,
		Phone: b.CustomerPhone,
	}
	err := conn.
		Where(models.Student{Email: b.CustomerEmail}).
		FirstOrCreate(&student).
		Error
	if err != nil {
		log.Printf("Could not register student for booking %d: %s\n", b.ID, err.Error())
	}
}

func generateJWT(admin *models.AdminUser) (string, error) {
	claims := types.Claims{
		Email: admin.Email,
		Role:  admin.Role,
		UID:   admin.UID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(admin.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
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
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	serviceHandlers(apiv1)
	bookingHandlers(apiv1)
	paymentHandlers(apiv1)
	return apiv1
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
	}
}

func runMigrations() {
	conn := db.GetDb()
	err := conn.AutoMigrate(
		&models.Service{},
		&models.Booking{},
		&models.Transaction{},
		&models.TrailLog{},
		&models.Instructor{},
		&models.Student{},
		&models.Testimonial{},
		&models.SiteSettings{},
		&models.AdminUser{},
	)
	if err != nil {
		log.Fatalf("Error running migrations: %s\n", err.Error())
	}
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := config.API_ENV
	if apiEnv == string(types.Local) {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	runMigrations()

	if err := lib.StartPricingSweep(time.Hour); err != nil {
		log.Printf("Could not start pricing sweep: %s\n", err.Error())
	}

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == string(types.Local) {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	registerValidators()

	router = maintenanceModeMiddleware(router)

	publicRoutes(router)

	guestAuthRoutes(router)

	stripeWebhookRoute(router)

	authorized := router.Group(path.Join(apiPrefix, "admin"))
	authorized.Use(middlewares.AuthMiddleware)
	{
		adminHandlers(authorized)
		transactionHandlers(authorized)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(fmt.Sprintf(":%s", port)); err != nil {
		log.Fatalf("Server exited: %s\n", err.Error())
	}
}
