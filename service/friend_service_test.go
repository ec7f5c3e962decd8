package service

import (
	"errors"
	"testing"

	"github.com/campuslink/campus-chat/cons"
	"github.com/campuslink/campus-chat/models"
)

func TestAddFriend_PairRows(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	if err := env.Frs.AddFriend(1, 2); err != nil {
		t.Fatalf("AddFriend err: %v", err)
	}

	ok, _ := env.Frs.CheckFriendship(1, 2)
	if !ok {
		t.Fatalf("expected friendship 1->2")
	}
	ok, _ = env.Frs.CheckFriendship(2, 1)
	if !ok {
		t.Fatalf("friendship must be symmetric")
	}

	var cnt int64
	env.base.DB.Model(&models.Friend{}).Count(&cnt)
	if cnt != 2 {
		t.Fatalf("expected pair rows, got %d", cnt)
	}
}

func TestAddFriend_BlockedEitherWayRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	// 对方屏蔽我，同样加不了
	if err := env.Frs.SetBlock(2, 1, true); err != nil {
		t.Fatalf("SetBlock err: %v", err)
	}
	if err := env.Frs.AddFriend(1, 2); !errors.Is(err, ErrValidation) {
		t.Fatalf("blocked pair should not befriend, got %v", err)
	}
}

func TestSetBlock_RemovesFriendshipBothWays(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	if err := env.Frs.AddFriend(1, 2); err != nil {
		t.Fatalf("AddFriend err: %v", err)
	}
	if err := env.Frs.SetBlock(1, 2, true); err != nil {
		t.Fatalf("SetBlock err: %v", err)
	}

	ok, _ := env.Frs.CheckFriendship(1, 2)
	if ok {
		t.Fatalf("block must dissolve friendship")
	}
	ok, _ = env.Frs.CheckFriendship(2, 1)
	if ok {
		t.Fatalf("block must dissolve the reverse row too")
	}

	blocked, _ := env.Frs.IsBlocked(1, 2)
	if !blocked {
		t.Fatalf("expected block 1->2")
	}
	blocked, _ = env.Frs.IsBlocked(2, 1)
	if blocked {
		t.Fatalf("block is directional, 2->1 must not exist")
	}
}

func TestSetBlock_UnblockAndIdempotency(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	// 重复屏蔽不报错
	if err := env.Frs.SetBlock(1, 2, true); err != nil {
		t.Fatalf("SetBlock err: %v", err)
	}
	if err := env.Frs.SetBlock(1, 2, true); err != nil {
		t.Fatalf("repeated block should be idempotent: %v", err)
	}

	if err := env.Frs.SetBlock(1, 2, false); err != nil {
		t.Fatalf("unblock err: %v", err)
	}
	blocked, _ := env.Frs.IsBlocked(1, 2)
	if blocked {
		t.Fatalf("expected unblocked")
	}
	// 解除后可以重新加好友
	if err := env.Frs.AddFriend(1, 2); err != nil {
		t.Fatalf("AddFriend after unblock err: %v", err)
	}
}

func TestRemoveFriend_BothRows(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	env.Frs.AddFriend(1, 2)
	if err := env.Frs.RemoveFriend(2, 1); err != nil {
		t.Fatalf("RemoveFriend err: %v", err)
	}

	var cnt int64
	env.base.DB.Model(&models.Friend{}).Count(&cnt)
	if cnt != 0 {
		t.Fatalf("expected no friend rows, got %d", cnt)
	}
}

func TestFriendEvents_PublishedToCounterpart(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	if err := env.Frs.AddFriend(1, 2); err != nil {
		t.Fatalf("AddFriend err: %v", err)
	}
	if n := env.countFeedEvents(t, 2, cons.EventFriendAdded); n != 1 {
		t.Fatalf("friend should have 1 added event, got %d", n)
	}

	if err := env.Frs.RemoveFriend(1, 2); err != nil {
		t.Fatalf("RemoveFriend err: %v", err)
	}
	if n := env.countFeedEvents(t, 2, cons.EventFriendDeleted); n != 1 {
		t.Fatalf("friend should have 1 deleted event, got %d", n)
	}

	// 关系早已不存在时再删不再追加事件
	if err := env.Frs.RemoveFriend(1, 2); err != nil {
		t.Fatalf("second RemoveFriend err: %v", err)
	}
	if n := env.countFeedEvents(t, 2, cons.EventFriendDeleted); n != 1 {
		t.Fatalf("no-op removal must not add events, got %d", n)
	}
}
