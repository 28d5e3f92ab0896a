package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pokefolio/pokefolio/internal/config"
	"github.com/pokefolio/pokefolio/internal/models"
	"github.com/pokefolio/pokefolio/internal/services"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PasswordResetToken{},
		&models.CollectionItem{},
		&models.WishlistItem{},
		&models.Listing{},
		&models.Message{},
		&models.CollectionValueSnapshot{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := &config.Config{
		SessionCookieName: "pokefolio_session",
		SessionTTLDays:    7,
	}
	collection := services.NewCollectionService(db)

	router := SetupRouter(cfg, Services{
		Auth:       services.NewAuthService(db),
		Collection: collection,
		Listings:   services.NewListingService(db),
		Messages:   services.NewMessageService(db),
		Catalog:    services.NewCatalogService("http://catalog.invalid", "", time.Minute),
		Prices:     services.NewPriceTrackerService("http://prices.invalid", "", 100),
		Snapshots:  services.NewSnapshotService(db, collection),
		Images:     services.NewImageStorageService(t.TempDir()),
	})
	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signupAndCookie(t *testing.T, router *gin.Engine, username string) []*http.Cookie {
	t.Helper()

	w := doJSON(t, router, "POST", "/api/auth/signup", gin.H{
		"email":    username + "@example.com",
		"username": username,
		"password": "password123",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", w.Code, w.Body.String())
	}

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("signup did not set a session cookie")
	}
	return cookies
}

func TestHealth(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, "GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("health returned %d, want 200", w.Code)
	}
}

func TestAuthCookieFlow(t *testing.T) {
	router, _ := testRouter(t)

	t.Run("unauthenticated me is 401", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/auth/me", nil, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("me without cookie returned %d, want 401", w.Code)
		}
	})

	cookies := signupAndCookie(t, router, "trainer_red")
	session := cookies[0]
	if !session.HttpOnly {
		t.Error("session cookie is not httpOnly")
	}

	t.Run("me with cookie", func(t *testing.T) {
		w := doJSON(t, router, "GET", "/api/auth/me", nil, cookies)
		if w.Code != http.StatusOK {
			t.Fatalf("me returned %d: %s", w.Code, w.Body.String())
		}
		var user models.User
		if err := json.Unmarshal(w.Body.Bytes(), &user); err != nil {
			t.Fatalf("failed to decode user: %v", err)
		}
		if user.Username != "trainer_red" {
			t.Errorf("username = %q, want trainer_red", user.Username)
		}
		if bytes.Contains(w.Body.Bytes(), []byte("password")) {
			t.Error("password material leaked in the response")
		}
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		w := doJSON(t, router, "POST", "/api/auth/logout", nil, cookies)
		if w.Code != http.StatusOK {
			t.Fatalf("logout returned %d", w.Code)
		}
		w = doJSON(t, router, "GET", "/api/auth/me", nil, cookies)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("me after logout returned %d, want 401", w.Code)
		}
	})
}

func TestForgotPasswordIsUniform(t *testing.T) {
	router, _ := testRouter(t)
	signupAndCookie(t, router, "trainer_blue")

	known := doJSON(t, router, "POST", "/api/auth/forgot-password",
		gin.H{"email": "trainer_blue@example.com"}, nil)
	unknown := doJSON(t, router, "POST", "/api/auth/forgot-password",
		gin.H{"email": "ghost@example.com"}, nil)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("statuses = %d/%d, want 200/200", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Errorf("responses differ between known and unknown emails:\n%s\n%s",
			known.Body.String(), unknown.Body.String())
	}
}

func TestListingOverAvailableIs400(t *testing.T) {
	router, _ := testRouter(t)
	cookies := signupAndCookie(t, router, "seller_gal")

	w := doJSON(t, router, "POST", "/api/collection/items", gin.H{
		"card_id":  "sv3-125",
		"card":     gin.H{"name": "Charizard ex", "market_price_usd": 42.5},
		"quantity": 2,
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Fatalf("add item returned %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "POST", "/api/marketplace", gin.H{
		"card_id":        "sv3-125",
		"quantity":       3,
		"price_per_card": 1500,
	}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Errorf("overlisting returned %d, want 400", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/marketplace", gin.H{
		"card_id":        "sv3-125",
		"quantity":       2,
		"price_per_card": 1500,
	}, cookies)
	if w.Code != http.StatusCreated {
		t.Errorf("valid listing returned %d: %s", w.Code, w.Body.String())
	}
}

func TestMarketplaceBrowsingIsPublic(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, "GET", "/api/marketplace", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("marketplace browse returned %d, want 200 without auth", w.Code)
	}

	w = doJSON(t, router, "POST", "/api/marketplace", gin.H{
		"card_id": "x", "quantity": 1, "price_per_card": 1,
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("listing creation without auth returned %d, want 401", w.Code)
	}
}
