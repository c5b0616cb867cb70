// Watchpoints - Watch-Time XP and Entitlement Ledger
// Copyright 2026 Watchpoints Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchpoints/watchpoints

package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/watchpoints/watchpoints/internal/auth"
	"github.com/watchpoints/watchpoints/internal/catalog"
	"github.com/watchpoints/watchpoints/internal/entitlement"
	"github.com/watchpoints/watchpoints/internal/history"
	"github.com/watchpoints/watchpoints/internal/ledger"
	"github.com/watchpoints/watchpoints/internal/models"
	"github.com/watchpoints/watchpoints/internal/session"
	"github.com/watchpoints/watchpoints/internal/xp"
)

const testJWTSecret = "test-secret-0123456789abcdef0123456789"

type testServer struct {
	handler http.Handler
	ledger  *ledger.Ledger
	history *history.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := ledger.OpenStore(ledger.StoreOptions{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hist, err := history.OpenForTesting()
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { hist.Close() })

	policy := xp.DefaultPolicy()
	led := ledger.New(store, policy, hist)
	sessions := session.NewManager(session.DefaultConfig(), policy, led, nil)
	entitlements := entitlement.NewService(led, nil)

	jwtManager, err := auth.NewJWTManager(testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}

	handler := NewHandler(HandlerDeps{
		Ledger:       led,
		Sessions:     sessions,
		Entitlements: entitlements,
		History:      hist,
		Catalog:      catalog.New(),
		JWT:          jwtManager,
		Policy:       policy,
	})

	router := NewRouter(handler, auth.NewMiddleware(jwtManager, "jwt"), &ChiMiddlewareConfig{
		RateLimitDisabled: true,
	})

	return &testServer{
		handler: router.Setup(),
		ledger:  led,
		history: hist,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) (int, *envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusNoContent {
		return rec.Code, &envelope{Success: true}
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, &env
}

func decodeData(t *testing.T, env *envelope, into any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, into); err != nil {
		t.Fatalf("decode data %q: %v", string(env.Data), err)
	}
}

func (ts *testServer) signIn(t *testing.T, name, email string) (token, userID string) {
	t.Helper()

	status, env := ts.request(t, http.MethodPost, "/api/v1/auth/signin", "", SignInRequest{
		Name:  name,
		Email: email,
	})
	if status != http.StatusOK {
		t.Fatalf("sign-in status = %d, error = %+v", status, env.Error)
	}

	var resp SignInResponse
	decodeData(t, env, &resp)
	if resp.Token == "" {
		t.Fatal("sign-in returned empty token")
	}
	return resp.Token, resp.User.ID
}

func TestSignIn(t *testing.T) {
	ts := newTestServer(t)

	token, userID := ts.signIn(t, "alice", "alice@example.com")
	if token == "" || userID == "" {
		t.Fatal("empty token or user ID")
	}

	// Same email resolves to the same identity.
	_, again := ts.signIn(t, "alice renamed", "alice@example.com")
	if again != userID {
		t.Errorf("second sign-in user = %s, want %s", again, userID)
	}
}

func TestSignInValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body SignInRequest
	}{
		{"missing email", SignInRequest{Name: "alice"}},
		{"bad email", SignInRequest{Name: "alice", Email: "not-an-email"}},
		{"missing name", SignInRequest{Email: "alice@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := ts.request(t, http.MethodPost, "/api/v1/auth/signin", "", tt.body)
			if status != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", status)
			}
			if env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
				t.Errorf("error = %+v, want %s", env.Error, ErrCodeValidationFailed)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	paths := []string{
		"/api/v1/users/me",
		"/api/v1/videos",
		"/api/v1/premium/plans",
	}
	for _, path := range paths {
		status, env := ts.request(t, http.MethodGet, path, "", nil)
		if status != http.StatusUnauthorized {
			t.Errorf("%s status = %d, want 401", path, status)
		}
		if env.Error == nil || env.Error.Code != ErrCodeUnauthorized {
			t.Errorf("%s error = %+v, want UNAUTHORIZED", path, env.Error)
		}
	}
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	token, userID := ts.signIn(t, "alice", "alice@example.com")

	status, env := ts.request(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}

	var profile ProfileResponse
	decodeData(t, env, &profile)
	if profile.ID != userID {
		t.Errorf("ID = %s, want %s", profile.ID, userID)
	}
	if profile.XP != 0 || profile.Level != 1 {
		t.Errorf("fresh user XP/Level = %d/%d, want 0/1", profile.XP, profile.Level)
	}
	if profile.IsPremium {
		t.Error("fresh user reported premium")
	}
}

func TestSessionAccrual(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	status, env := ts.request(t, http.MethodPost, "/api/v1/sessions", token, StartSessionRequest{VideoID: "video-1"})
	if status != http.StatusCreated {
		t.Fatalf("start session status = %d, error = %+v", status, env.Error)
	}
	var started StartSessionResponse
	decodeData(t, env, &started)
	if started.SessionID == "" {
		t.Fatal("empty session ID")
	}

	// One sample per second of playback up to the 300 second window.
	samplesPath := fmt.Sprintf("/api/v1/sessions/%s/samples", started.SessionID)
	var last session.SampleResult
	for pos := 1; pos <= 300; pos++ {
		status, env := ts.request(t, http.MethodPost, samplesPath, token, SampleRequest{PositionSeconds: float64(pos)})
		if status != http.StatusOK {
			t.Fatalf("sample at %ds status = %d, error = %+v", pos, status, env.Error)
		}
		decodeData(t, env, &last)
	}

	if last.CreditedXP != 50 {
		t.Errorf("credit at window boundary = %d, want 50", last.CreditedXP)
	}
	if last.NewXP != 50 {
		t.Errorf("NewXP = %d, want 50", last.NewXP)
	}

	status, env = ts.request(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile status = %d", status)
	}
	var profile ProfileResponse
	decodeData(t, env, &profile)
	if profile.XP != 50 {
		t.Errorf("profile XP = %d, want 50", profile.XP)
	}
}

func TestSessionSkipHaltsAccrual(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	_, env := ts.request(t, http.MethodPost, "/api/v1/sessions", token, StartSessionRequest{VideoID: "video-1"})
	var started StartSessionResponse
	decodeData(t, env, &started)
	samplesPath := fmt.Sprintf("/api/v1/sessions/%s/samples", started.SessionID)

	// Jump forward well past the tolerance.
	_, env = ts.request(t, http.MethodPost, samplesPath, token, SampleRequest{PositionSeconds: 2})
	var result session.SampleResult
	decodeData(t, env, &result)
	if result.Skipped {
		t.Fatal("in-tolerance sample flagged as skipped")
	}

	_, env = ts.request(t, http.MethodPost, samplesPath, token, SampleRequest{PositionSeconds: 120})
	decodeData(t, env, &result)
	if !result.Skipped {
		t.Fatal("seek not flagged as skipped")
	}
	if result.CreditedXP != 0 {
		t.Errorf("skip credited %d XP", result.CreditedXP)
	}
}

func TestPlaybackEnded(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	_, env := ts.request(t, http.MethodPost, "/api/v1/sessions", token, StartSessionRequest{VideoID: "video-5"})
	var started StartSessionResponse
	decodeData(t, env, &started)
	samplesPath := fmt.Sprintf("/api/v1/sessions/%s/samples", started.SessionID)

	for pos := 1; pos <= 95; pos++ {
		ts.request(t, http.MethodPost, samplesPath, token, SampleRequest{PositionSeconds: float64(pos)})
	}

	eventsPath := fmt.Sprintf("/api/v1/sessions/%s/events", started.SessionID)
	status, env := ts.request(t, http.MethodPost, eventsPath, token, PlaybackEventRequest{
		Type:            "ended",
		PositionSeconds: 95,
	})
	if status != http.StatusOK {
		t.Fatalf("ended status = %d, error = %+v", status, env.Error)
	}

	// 50 base + floor(0.1 * 95) bonus.
	var result session.SampleResult
	decodeData(t, env, &result)
	if result.CreditedXP != 59 {
		t.Errorf("completion credit = %d, want 59", result.CreditedXP)
	}

	// The session is gone afterwards.
	status, _ = ts.request(t, http.MethodPost, samplesPath, token, SampleRequest{PositionSeconds: 96})
	if status != http.StatusNotFound {
		t.Errorf("sample after ended status = %d, want 404", status)
	}

	// Completion lands in the history feed.
	status, env = ts.request(t, http.MethodGet, "/api/v1/users/me/history", token, nil)
	if status != http.StatusOK {
		t.Fatalf("history status = %d", status)
	}
	var hist HistoryResponse
	decodeData(t, env, &hist)
	if len(hist.Events) != 1 {
		t.Fatalf("history events = %d, want 1", len(hist.Events))
	}
	if hist.Events[0].XPEarned != 59 || hist.Events[0].VideoID != "video-5" {
		t.Errorf("history event = %+v", hist.Events[0])
	}
}

func TestSessionUnknownVideo(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	status, env := ts.request(t, http.MethodPost, "/api/v1/sessions", token, StartSessionRequest{VideoID: "nope"})
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	status, env := ts.request(t, http.MethodPost, "/api/v1/sessions/missing/samples", token, SampleRequest{PositionSeconds: 1})
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if env.Error == nil || env.Error.Code != ErrCodeInvalidSession {
		t.Errorf("error = %+v, want INVALID_SESSION", env.Error)
	}
}

func TestPremiumPurchase(t *testing.T) {
	ts := newTestServer(t)
	token, userID := ts.signIn(t, "alice", "alice@example.com")

	// Insufficient XP first.
	status, env := ts.request(t, http.MethodPost, "/api/v1/premium/purchase", token, PurchaseRequest{PlanID: "monthly"})
	if status != http.StatusPaymentRequired {
		t.Fatalf("broke purchase status = %d, want 402", status)
	}
	if env.Error == nil || env.Error.Code != ErrCodeInsufficientXP {
		t.Errorf("error = %+v, want INSUFFICIENT_XP", env.Error)
	}

	if _, err := ts.ledger.Credit(context.Background(), userID, 1200, &models.WatchEvent{
		UserID: userID, VideoID: "video-1", WatchTime: 600,
	}); err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	status, env = ts.request(t, http.MethodPost, "/api/v1/premium/purchase", token, PurchaseRequest{PlanID: "monthly"})
	if status != http.StatusOK {
		t.Fatalf("purchase status = %d, error = %+v", status, env.Error)
	}
	var result entitlement.PurchaseResult
	decodeData(t, env, &result)
	if result.RemainingXP != 200 {
		t.Errorf("RemainingXP = %d, want 200", result.RemainingXP)
	}

	status, env = ts.request(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile status = %d", status)
	}
	var profile ProfileResponse
	decodeData(t, env, &profile)
	if !profile.IsPremium {
		t.Error("profile not premium after purchase")
	}
	if profile.DaysRemaining != 30 {
		t.Errorf("DaysRemaining = %d, want 30", profile.DaysRemaining)
	}
}

func TestPremiumUnknownPlan(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	status, env := ts.request(t, http.MethodPost, "/api/v1/premium/purchase", token, PurchaseRequest{PlanID: "lifetime"})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if env.Error == nil || env.Error.Code != ErrCodeUnknownPlan {
		t.Errorf("error = %+v, want UNKNOWN_PLAN", env.Error)
	}
}

func TestPremiumPlans(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	status, env := ts.request(t, http.MethodGet, "/api/v1/premium/plans", token, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var resp struct {
		Plans []entitlement.Plan `json:"plans"`
	}
	decodeData(t, env, &resp)
	if len(resp.Plans) != 3 {
		t.Errorf("plans = %d, want 3", len(resp.Plans))
	}
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signIn(t, "alice", "alice@example.com")

	status, env := ts.request(t, http.MethodGet, "/api/v1/videos", token, nil)
	if status != http.StatusOK {
		t.Fatalf("videos status = %d", status)
	}
	var videos struct {
		Videos []models.Video `json:"videos"`
	}
	decodeData(t, env, &videos)
	if len(videos.Videos) == 0 {
		t.Fatal("empty video list")
	}
	for _, v := range videos.Videos {
		if v.Short {
			t.Errorf("short %s in main feed", v.ID)
		}
	}

	status, env = ts.request(t, http.MethodGet, "/api/v1/videos/video-1", token, nil)
	if status != http.StatusOK {
		t.Fatalf("video status = %d", status)
	}
	var video models.Video
	decodeData(t, env, &video)
	if video.ID != "video-1" {
		t.Errorf("video ID = %s", video.ID)
	}

	status, env = ts.request(t, http.MethodGet, "/api/v1/videos/missing", token, nil)
	if status != http.StatusNotFound {
		t.Errorf("missing video status = %d, want 404", status)
	}

	status, env = ts.request(t, http.MethodGet, "/api/v1/shorts", token, nil)
	if status != http.StatusOK {
		t.Fatalf("shorts status = %d", status)
	}
	var shorts struct {
		Shorts []models.Video `json:"shorts"`
	}
	decodeData(t, env, &shorts)
	if len(shorts.Shorts) == 0 {
		t.Fatal("empty shorts feed")
	}
}

func TestRewards(t *testing.T) {
	ts := newTestServer(t)
	token, userID := ts.signIn(t, "alice", "alice@example.com")

	// Level 5 unlocks the first reward.
	if _, err := ts.ledger.Credit(context.Background(), userID, 4000, &models.WatchEvent{
		UserID: userID, VideoID: "video-1", WatchTime: 24000,
	}); err != nil {
		t.Fatalf("seed credit: %v", err)
	}

	status, env := ts.request(t, http.MethodGet, "/api/v1/users/me/rewards", token, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var resp RewardsResponse
	decodeData(t, env, &resp)
	if resp.Level != 5 {
		t.Errorf("Level = %d, want 5", resp.Level)
	}
	if len(resp.Unlocked) != 1 || resp.Unlocked[0].Name != "profile_badge" {
		t.Errorf("Unlocked = %+v, want [profile_badge]", resp.Unlocked)
	}
	if resp.Next == nil || resp.Next.Name != "premium_trial" {
		t.Errorf("Next = %+v, want premium_trial", resp.Next)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.request(t, http.MethodGet, "/api/v1/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var health HealthStatus
	decodeData(t, env, &health)
	if health.Status != "healthy" {
		t.Errorf("Status = %s, want healthy", health.Status)
	}
	if !health.HistoryConnected {
		t.Error("history not connected")
	}

	status, _ = ts.request(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if status != http.StatusOK {
		t.Errorf("live status = %d", status)
	}
	status, _ = ts.request(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if status != http.StatusOK {
		t.Errorf("ready status = %d", status)
	}
}
