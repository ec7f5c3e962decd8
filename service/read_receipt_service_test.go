package service

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/campuslink/campus-chat/message"
)

func TestMarkRead_MonotonicCursor(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)

	m1, _ := env.Msgs.Send(room.ID, 1, message.Text{Content: "一"})
	m2, _ := env.Msgs.Send(room.ID, 1, message.Text{Content: "二"})
	m3, _ := env.Msgs.Send(room.ID, 1, message.Text{Content: "三"})

	if err := env.Reads.MarkRead(room.ID, 2, m2.ID); err != nil {
		t.Fatalf("MarkRead err: %v", err)
	}
	n, _ := env.Reads.UnreadCountForRoom(room.ID, 2)
	if n != 1 {
		t.Fatalf("expected 1 unread after reading up to m2, got %d", n)
	}

	// 乱序到达的旧上报：静默忽略，游标不回退
	if err := env.Reads.MarkRead(room.ID, 2, m1.ID); err != nil {
		t.Fatalf("stale MarkRead should be a no-op, got %v", err)
	}
	n, _ = env.Reads.UnreadCountForRoom(room.ID, 2)
	if n != 1 {
		t.Fatalf("cursor must not move backwards, got %d unread", n)
	}

	if err := env.Reads.MarkRead(room.ID, 2, m3.ID); err != nil {
		t.Fatalf("MarkRead err: %v", err)
	}
	n, _ = env.Reads.UnreadCountForRoom(room.ID, 2)
	if n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}
}

func TestMarkRead_NonMemberRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 3)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)
	m1, _ := env.Msgs.Send(room.ID, 1, message.Text{Content: "一"})

	if err := env.Reads.MarkRead(room.ID, 3, m1.ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := env.Reads.MarkRead(room.ID, 2, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero message id should fail validation, got %v", err)
	}
}

func TestUnreadCount_ExcludesOwnAndBlocked(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 3)
	room, _ := env.Rooms.CreateGroupRoom("群", 1, []uint64{2, 3})

	env.Msgs.Send(room.ID, 1, message.Text{Content: "自己的"})
	env.Msgs.Send(room.ID, 2, message.Text{Content: "2的"})
	env.Msgs.Send(room.ID, 3, message.Text{Content: "3的"})

	n, _ := env.Reads.UnreadCountForRoom(room.ID, 1)
	if n != 2 {
		t.Fatalf("own messages never count, expected 2, got %d", n)
	}

	env.Frs.SetBlock(1, 3, true)
	n, _ = env.Reads.UnreadCountForRoom(room.ID, 1)
	if n != 1 {
		t.Fatalf("blocked sender must not count, expected 1, got %d", n)
	}
}

func TestUnreadSummaryAcrossRooms(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 3)

	r1, _ := env.Rooms.CreatePrivateRoom(1, 2)
	r2, _ := env.Rooms.CreatePrivateRoom(1, 3)
	r3, _ := env.Rooms.CreateGroupRoom("静默群", 1, []uint64{2})

	env.Msgs.Send(r1.ID, 2, message.Text{Content: "a"})
	env.Msgs.Send(r1.ID, 2, message.Text{Content: "b"})
	env.Msgs.Send(r2.ID, 3, message.Text{Content: "c"})
	// r3 没人说话

	sum, err := env.Reads.UnreadSummaryAcrossRooms(1)
	if err != nil {
		t.Fatalf("UnreadSummaryAcrossRooms err: %v", err)
	}
	if sum.TotalUnread != 3 {
		t.Fatalf("expected 3 total unread, got %d", sum.TotalUnread)
	}
	// 只列有未读的房间
	if len(sum.Rooms) != 2 {
		t.Fatalf("expected 2 rooms with unread, got %d", len(sum.Rooms))
	}
	for _, r := range sum.Rooms {
		if r.RoomID == r3.ID {
			t.Fatalf("silent room must not appear in summary")
		}
		if r.LastMessage == nil {
			t.Fatalf("unread room should carry a preview")
		}
	}
}

func TestCachedTotalUnread_RedisRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	mr := miniredis.RunT(t)
	env.base.RDB = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	room, _ := env.Rooms.CreatePrivateRoom(1, 2)
	env.Msgs.Send(room.ID, 2, message.Text{Content: "hi"})

	ctx := context.Background()
	n, err := env.Reads.CachedTotalUnread(ctx, 1)
	if err != nil {
		t.Fatalf("CachedTotalUnread err: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}

	// 第二次命中缓存，值一致
	n, err = env.Reads.CachedTotalUnread(ctx, 1)
	if err != nil || n != 1 {
		t.Fatalf("cached read: n=%d err=%v", n, err)
	}

	// 新消息写路径失效缓存
	env.Msgs.Send(room.ID, 2, message.Text{Content: "again"})
	n, err = env.Reads.CachedTotalUnread(ctx, 1)
	if err != nil || n != 2 {
		t.Fatalf("after invalidation: n=%d err=%v", n, err)
	}
}
