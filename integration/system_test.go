//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"

	"WatchShop/internal/catalog"
	"WatchShop/internal/shop"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

// adminEmail must be listed in the auth service's ADMIN_EMAILS.
var adminEmail = getenv("E2E_ADMIN_EMAIL", "owner@example.com")

func TestSystem_E2E_PurchaseSurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	adminTok := registerAndLogin(t, adminEmail, true)
	buyerTok := registerAndLogin(t, fmt.Sprintf("buyer_%d_%d@example.com", time.Now().Unix(), rand.Intn(100000)), false)

	admin := shop.NewClient(baseURL, adminTok)
	buyer := shop.NewClient(baseURL, buyerTok)

	id, err := admin.AddProduct(ctx, catalog.NewListing{
		Name:        "E2E Watch",
		Description: "integration",
		Price:       1250,
		Quantity:    4,
		Handcrafted: true,
	})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}

	p, err := buyer.BuyProduct(ctx, id, 3)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if p.TotalPrice != 3750 {
		t.Fatalf("total_price=%d want=3750", p.TotalPrice)
	}

	if _, err := buyer.BuyProduct(ctx, id, 2); err == nil {
		t.Fatalf("expected insufficient stock")
	}

	if os.Getenv("E2E_RESTART_SHOP") == "1" {
		restartService(t, ctx, "shop")
		waitReady(t, ctx, baseURL+"/readyz")
	}

	l, err := buyer.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if l.Quantity != 1 {
		t.Fatalf("quantity=%d want=1", l.Quantity)
	}

	mine, err := buyer.MyPurchases(ctx)
	if err != nil {
		t.Fatalf("my purchases: %v", err)
	}
	if len(mine) != 1 || mine[0].ListingID != id || mine[0].Quantity != 3 {
		t.Fatalf("purchases=%+v", mine)
	}

	next, err := admin.AddProduct(ctx, catalog.NewListing{Name: "E2E Watch 2", Price: 1, Quantity: 1})
	if err != nil {
		t.Fatalf("add second product: %v", err)
	}
	if next != id+1 {
		t.Fatalf("next id=%d want=%d", next, id+1)
	}
}

func registerAndLogin(t *testing.T, email string, mayExist bool) string {
	t.Helper()
	pass := "password123!"

	status := doJSON(t, http.MethodPost, baseURL+"/auth/register", map[string]any{
		"email":    email,
		"password": pass,
	}, nil)
	if status != http.StatusCreated && !(mayExist && status == http.StatusConflict) {
		t.Fatalf("register %s: status=%d", email, status)
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	if status := doJSON(t, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"email":    email,
		"password": pass,
	}, &loginResp); status != http.StatusOK {
		t.Fatalf("login %s: status=%d", email, status)
	}
	if loginResp.AccessToken == "" {
		t.Fatalf("empty access_token")
	}
	return loginResp.AccessToken
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
