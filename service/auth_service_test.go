package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	mr := miniredis.RunT(t)
	base := &Service{
		DB:  newTestDB(t),
		RDB: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}
	return NewAuthService(base)
}

func TestAuthService_EnsureUserUpsert(t *testing.T) {
	auth := newTestAuthService(t)

	u, err := auth.EnsureUser(101, "stu0101", "小明", "")
	if err != nil {
		t.Fatalf("EnsureUser err: %v", err)
	}
	if u.ID != 101 || u.Nickname != "小明" {
		t.Fatalf("unexpected user: %+v", u)
	}

	// 再次同步更新昵称
	u, err = auth.EnsureUser(101, "stu0101", "明明", "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("EnsureUser update err: %v", err)
	}
	if u.Nickname != "明明" && u.Avatar == "" {
		t.Fatalf("expected updated projection, got %+v", u)
	}
}

func TestAuthService_SessionRoundTrip(t *testing.T) {
	auth := newTestAuthService(t)
	ctx := context.Background()

	if _, err := auth.EnsureUser(7, "stu0007", "七号", ""); err != nil {
		t.Fatalf("EnsureUser err: %v", err)
	}

	token, err := auth.IssueSession(ctx, 7)
	if err != nil {
		t.Fatalf("IssueSession err: %v", err)
	}

	user, err := auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate err: %v", err)
	}
	if user.ID != 7 {
		t.Fatalf("expected user 7, got %d", user.ID)
	}

	if err := auth.Logout(ctx, 7, token); err != nil {
		t.Fatalf("Logout err: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); err == nil {
		t.Fatalf("token should be dead after logout")
	}
}

func TestAuthService_UnknownProjectionRejected(t *testing.T) {
	auth := newTestAuthService(t)
	ctx := context.Background()

	// 会话有效但本地没有用户投影
	token, err := auth.IssueSession(ctx, 999)
	if err != nil {
		t.Fatalf("IssueSession err: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); err == nil {
		t.Fatalf("missing projection should reject")
	}
}
