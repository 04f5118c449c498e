package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"taxdesk/internal/access"
	"taxdesk/internal/caching"
	"taxdesk/internal/handlers"
	"taxdesk/internal/jobs"
	"taxdesk/internal/jobs/background"
	"taxdesk/internal/middleware"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"
	"taxdesk/internal/services"
	"taxdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	ctx := context.Background()

	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret: %s", jwtSecret)
	}
	tokenTTL := envInt("TOKEN_TTL_SECONDS", 3600)
	refreshTTL := envInt("REFRESH_TTL_SECONDS", 7*24*3600)

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default Redis address
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := envInt("REDIS_DB", 0)

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000" // Default MinIO endpoint
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	minioBucket := os.Getenv("MINIO_BUCKET")
	if minioBucket == "" {
		minioBucket = "taxdesk-documents"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	// Object store
	store, err := services.NewMinioObjectStore(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}
	if err := store.EnsureBucketExists(ctx); err != nil {
		log.Fatalf("Failed to ensure bucket %s exists: %v", minioBucket, err)
	}

	// Create repositories
	credentialRepo := repositories.NewCredentialRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	employeeRepo := repositories.NewEmployeeRepo(pool)
	documentRepo := repositories.NewDocumentRepo(pool)
	taxReturnRepo := repositories.NewTaxReturnRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	authSvc := services.NewAuthService(credentialRepo, userRepo, cacheSvc, jwtSecret, tokenTTL, refreshTTL)
	profileSvc := services.NewProfileService(userRepo, authSvc)
	documentSvc := services.NewDocumentService(documentRepo, store)
	employeeSvc := services.NewEmployeeService(employeeRepo, userRepo, authSvc, cacheSvc)
	taxReturnSvc := services.NewTaxReturnService(taxReturnRepo, userRepo)
	directorySvc := services.NewDirectoryService(userRepo, employeeRepo, documentRepo, taxReturnRepo)

	// Access gate: role lookups hit the employee table through the cache
	roleSource := access.NewEmployeeRoleSource(employeeRepo, cacheSvc)
	gate := access.NewGate(roleSource, "/v1/auth/login", "/")
	gateMiddleware := middleware.NewGateMiddleware(gate)

	// Background jobs
	sweeper := jobs.NewOrphanSweeper(store, documentRepo, 1*time.Hour)
	scheduler := background.NewJobScheduler(sweeper, directorySvc)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, profileSvc)
	profileHandlers := handlers.NewProfileHandlers(profileSvc, authSvc, employeeRepo)
	documentHandlers := handlers.NewDocumentHandlers(documentSvc)
	employeeHandlers := handlers.NewEmployeeHandlers(employeeSvc, directorySvc)
	clientHandlers := handlers.NewClientHandlers(profileSvc, directorySvc)
	taxReturnHandlers := handlers.NewTaxReturnHandlers(taxReturnSvc)
	dashboardHandlers := handlers.NewDashboardHandlers(directorySvc, scheduler)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, store)

	// JWT middleware configuration
	jwtConfig := echojwt.Config{
		SigningKey: []byte(jwtSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(services.TokenClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(401, "Invalid token")
		},
	}

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/metrics", healthHandlers.GetMetrics)

	// API routes
	versionMiddleware := middleware.NewVersionMiddleware()
	v1 := versionMiddleware.VersionRoute(e, "v1")

	// Authentication routes (no JWT required)
	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/refresh", authHandlers.Refresh)
	auth.POST("/forgot-password", authHandlers.RequestPasswordReset)
	auth.POST("/reset-password", authHandlers.ConfirmPasswordReset)
	auth.POST("/bootstrap", employeeHandlers.Bootstrap)

	// Protected routes (require JWT)
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(jwtConfig))
	protected.Use(middleware.PrincipalMiddleware())

	protected.POST("/auth/logout", authHandlers.Logout)

	// Own-account routes
	protected.GET("/me", profileHandlers.Me)
	protected.PUT("/me", profileHandlers.UpdateMe)
	protected.PUT("/me/email", profileHandlers.ChangeEmail)
	protected.POST("/me/password", profileHandlers.ChangePassword)

	// Client document routes
	protected.POST("/documents", documentHandlers.Upload)
	protected.GET("/documents", documentHandlers.ListMine)
	protected.GET("/documents/:id", documentHandlers.Get)
	protected.GET("/documents/:id/download", documentHandlers.Download)
	protected.DELETE("/documents/:id", documentHandlers.Delete)

	// Client tax return routes (read-only)
	protected.GET("/tax-returns", taxReturnHandlers.ListMine)
	protected.GET("/tax-returns/:id", taxReturnHandlers.GetMine)

	// Staff routes (any employee role)
	staff := protected.Group("")
	staff.Use(gateMiddleware.Require(access.RoleIn(models.RoleEmployee, models.RoleAdmin, models.RoleCEO)))

	staff.GET("/clients", clientHandlers.List)
	staff.GET("/clients/:id", clientHandlers.Get)
	staff.GET("/clients/:id/documents", documentHandlers.ListForClient)
	staff.GET("/clients/:id/tax-returns", taxReturnHandlers.ListForClient)
	staff.PUT("/documents/:id/status", documentHandlers.UpdateStatus)
	staff.GET("/directory/employees", employeeHandlers.List)
	staff.GET("/directory/employees/:id", employeeHandlers.Get)
	staff.GET("/dashboard", dashboardHandlers.Stats)

	// Admin routes
	admin := protected.Group("")
	admin.Use(gateMiddleware.Require(access.RoleIn(models.RoleAdmin, models.RoleCEO)))

	admin.POST("/employees", employeeHandlers.Create)
	admin.PUT("/employees/:id", employeeHandlers.Update)
	admin.DELETE("/employees/:id", employeeHandlers.Delete)
	admin.POST("/employees/:id/assign", employeeHandlers.AssignClient)
	admin.POST("/tax-returns", taxReturnHandlers.Create)
	admin.PUT("/tax-returns/:id", taxReturnHandlers.Update)
	admin.GET("/tax-returns/all", taxReturnHandlers.List)
	admin.GET("/dashboard/admin", dashboardHandlers.Jobs)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Taxdesk portal v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
