package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"wealthsync/internal/config"
	"wealthsync/internal/handlers"
	"wealthsync/internal/logger"
	"wealthsync/internal/middleware"
	"wealthsync/internal/models"
	"wealthsync/internal/pricing"
	"wealthsync/internal/refresh"
	"wealthsync/internal/services"
	"wealthsync/internal/validator"
)

const testPipelineKey = "integration-pipeline-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Refresher *refresh.Refresher
	Market    *fakeMarket
}

// fakeMarket serves CoinGecko and Alpha Vantage shaped responses from a
// mutable price table. A symbol missing from the table is an unknown symbol.
type fakeMarket struct {
	mu     sync.Mutex
	crypto map[string]string // coin id -> price
	stocks map[string]string // ticker -> price
	server *httptest.Server
}

func newFakeMarket(t *testing.T) *fakeMarket {
	t.Helper()
	m := &fakeMarket{crypto: map[string]string{}, stocks: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/coingecko", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		id := r.URL.Query().Get("ids")
		body := map[string]map[string]json.Number{}
		if p, ok := m.crypto[id]; ok {
			body[id] = map[string]json.Number{"usd": json.Number(p)}
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("/alphavantage", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		quote := map[string]string{}
		if p, ok := m.stocks[r.URL.Query().Get("symbol")]; ok {
			quote["05. price"] = p
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"Global Quote": quote})
	})
	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *fakeMarket) setCrypto(id, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crypto[id] = price
}

func (m *fakeMarket) setStock(symbol, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[symbol] = price
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Set(&config.Config{JWTSecret: "integration-secret"})
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:integrationdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []any{
		&models.User{},
		&models.Portfolio{},
		&models.Asset{},
		&models.Debt{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite and a fake market data server.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	market := newFakeMarket(t)

	// Pricing, without caching so tests observe every price change
	httpClient := &http.Client{Timeout: 5 * time.Second}
	registry := pricing.NewRegistry(
		pricing.NewCoinGeckoProvider(httpClient, pricing.WithCoinGeckoURL(market.server.URL+"/coingecko")),
		pricing.NewAlphaVantageProvider(httpClient, market.server.URL+"/alphavantage", "test-key"),
	)
	refresher := refresh.New(services.NewAssetStore(db), registry, refresh.Options{
		Interval:     time.Hour,
		FetchTimeout: 2 * time.Second,
	})

	// Services
	userService := services.NewUserService(db)
	portfolioService := services.NewPortfolioService(db)
	assetService := services.NewAssetService(db, registry)
	debtService := services.NewDebtService(db)
	summaryService := services.NewSummaryService(db, "usd")
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, auditService)
	assetHandler := handlers.NewAssetHandler(assetService, auditService)
	debtHandler := handlers.NewDebtHandler(debtService, auditService)
	summaryHandler := handlers.NewSummaryHandler(summaryService)
	pipelineHandler := handlers.NewPipelineHandler(context.Background(), refresher)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(testPipelineKey))
	pipeline.POST("/refresh", pipelineHandler.TriggerRefresh)
	pipeline.GET("/refresh/status", pipelineHandler.RefreshStatus)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/summary", summaryHandler.GetNetWorth)

	portfolios := protected.Group("/portfolios")
	portfolios.POST("", portfolioHandler.CreatePortfolio)
	portfolios.GET("", portfolioHandler.GetUserPortfolios)
	portfolios.GET("/:id", portfolioHandler.GetPortfolioByID)
	portfolios.PUT("/:id", portfolioHandler.UpdatePortfolio)
	portfolios.DELETE("/:id", portfolioHandler.DeletePortfolio)

	assets := protected.Group("/assets")
	assets.POST("", assetHandler.CreateAsset)
	assets.GET("", assetHandler.GetUserAssets)
	assets.GET("/:id", assetHandler.GetAssetByID)
	assets.PUT("/:id", assetHandler.UpdateAsset)
	assets.DELETE("/:id", assetHandler.DeleteAsset)

	debts := protected.Group("/debts")
	debts.POST("", debtHandler.CreateDebt)
	debts.GET("", debtHandler.GetUserDebts)
	debts.GET("/:id", debtHandler.GetDebtByID)
	debts.PUT("/:id", debtHandler.UpdateDebt)
	debts.DELETE("/:id", debtHandler.DeleteDebt)

	return &testApp{DB: db, Router: router, Refresher: refresher, Market: market}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// pipelineRequest calls a pipeline endpoint with the given API key.
func (app *testApp) pipelineRequest(method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(result map[string]any) any {
	errObj, _ := result["error"].(map[string]any)
	return errObj["code"]
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]any)
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createAsset posts an asset and returns the decoded asset object.
func (app *testApp) createAsset(t *testing.T, token, body string) map[string]any {
	t.Helper()
	rec := app.request("POST", "/api/v1/assets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create asset failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["asset"].(map[string]any)
}

// waitForReport polls the refresher until a cycle report is available.
func (app *testApp) waitForReport(t *testing.T) *refresh.CycleReport {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if rep := app.Refresher.LastReport(); rep != nil && !app.Refresher.Running() {
			return rep
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for refresh cycle")
	return nil
}
