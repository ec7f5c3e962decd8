package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestTokenService(t *testing.T) (*TokenService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTokenService(rdb), mr
}

func TestTokenService_StoreAndResolve(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	token, err := svc.GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken err: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}

	if err := svc.StoreToken(ctx, token, 42, time.Hour); err != nil {
		t.Fatalf("StoreToken err: %v", err)
	}

	uid, err := svc.GetUserIDByToken(ctx, token)
	if err != nil {
		t.Fatalf("GetUserIDByToken err: %v", err)
	}
	if uid != 42 {
		t.Fatalf("expected uid 42, got %d", uid)
	}
}

func TestTokenService_InvalidAndExpired(t *testing.T) {
	svc, mr := newTestTokenService(t)
	ctx := context.Background()

	if _, err := svc.GetUserIDByToken(ctx, "nope"); err == nil {
		t.Fatalf("unknown token should fail")
	}

	token, _ := svc.GenerateToken()
	if err := svc.StoreToken(ctx, token, 7, time.Minute); err != nil {
		t.Fatalf("StoreToken err: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := svc.GetUserIDByToken(ctx, token); err == nil {
		t.Fatalf("expired token should fail")
	}
}

func TestTokenService_RevokeAll(t *testing.T) {
	svc, _ := newTestTokenService(t)
	ctx := context.Background()

	t1, _ := svc.GenerateToken()
	t2, _ := svc.GenerateToken()
	svc.StoreToken(ctx, t1, 9, time.Hour)
	svc.StoreToken(ctx, t2, 9, time.Hour)

	if err := svc.RevokeAllTokensByUser(ctx, 9); err != nil {
		t.Fatalf("RevokeAllTokensByUser err: %v", err)
	}

	if _, err := svc.GetUserIDByToken(ctx, t1); err == nil {
		t.Fatalf("t1 should be revoked")
	}
	if _, err := svc.GetUserIDByToken(ctx, t2); err == nil {
		t.Fatalf("t2 should be revoked")
	}
}
