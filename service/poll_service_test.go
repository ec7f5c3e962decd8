package service

import (
	"errors"
	"testing"
	"time"

	"github.com/campuslink/campus-chat/cons"
	"github.com/campuslink/campus-chat/models"
)

func TestCreatePoll_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)

	if _, _, err := env.Polls.Create(room.ID, 1, "  ", []string{"A", "B"}, false, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank title should fail, got %v", err)
	}
	if _, _, err := env.Polls.Create(room.ID, 1, "题目", []string{"A", " "}, false, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("single non-empty option should fail, got %v", err)
	}
	past := time.Now().Add(-time.Minute)
	if _, _, err := env.Polls.Create(room.ID, 1, "题目", []string{"A", "B"}, false, &past); !errors.Is(err, ErrValidation) {
		t.Fatalf("past deadline should fail, got %v", err)
	}
	if _, _, err := env.Polls.Create(room.ID, 2, "题目", []string{"A", "B"}, false, nil); err != nil {
		t.Fatalf("valid poll err: %v", err)
	}
}

func TestCreatePoll_CarrierMessage(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)

	msg, poll, err := env.Polls.Create(room.ID, 1, "周末去哪", []string{"爬山", "图书馆", "操场"}, false, nil)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}
	if msg.Type != models.MessageTypePoll {
		t.Fatalf("carrier should be poll typed, got %d", msg.Type)
	}
	if msg.Content != "周末去哪" {
		t.Fatalf("carrier content should be title, got %q", msg.Content)
	}
	if len(msg.Extra) == 0 {
		t.Fatalf("carrier must carry poll_id in extra")
	}
	if len(poll.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(poll.Options))
	}
	for i, opt := range poll.Options {
		if opt.Position != i {
			t.Fatalf("option order must follow creation order")
		}
	}
}

func TestCreatePoll_FansOutToFeed(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 3)
	room, _ := env.Rooms.CreateGroupRoom("班级", 1, []uint64{2, 3})

	if _, _, err := env.Polls.Create(room.ID, 1, "班服颜色", []string{"红", "蓝"}, false, nil); err != nil {
		t.Fatalf("Create err: %v", err)
	}

	for _, uid := range []uint64{1, 2, 3} {
		if n := env.countFeedEvents(t, uid, cons.EventRoomPollCreated); n != 1 {
			t.Fatalf("user %d should have 1 poll-created event, got %d", uid, n)
		}
	}
}

func TestVote_ToggleAndSwitch(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)
	msg, poll, _ := env.Polls.Create(room.ID, 1, "去哪", []string{"A", "B"}, false, nil)
	optA, optB := poll.Options[0].ID, poll.Options[1].ID

	countVotes := func() int64 {
		var n int64
		env.base.DB.Model(&models.PollVote{}).Where("poll_id = ?", poll.ID).Count(&n)
		return n
	}
	myOption := func(uid uint64) *uint64 {
		var v models.PollVote
		err := env.base.DB.Where("poll_id = ? AND user_id = ?", poll.ID, uid).First(&v).Error
		if err != nil {
			return nil
		}
		return &v.OptionID
	}

	// 首投
	if err := env.Polls.Vote(msg.ID, 2, optA); err != nil {
		t.Fatalf("first vote err: %v", err)
	}
	if got := myOption(2); got == nil || *got != optA {
		t.Fatalf("expected vote on A")
	}

	// 改票
	if err := env.Polls.Vote(msg.ID, 2, optB); err != nil {
		t.Fatalf("switch vote err: %v", err)
	}
	if got := myOption(2); got == nil || *got != optB {
		t.Fatalf("expected vote switched to B")
	}
	if countVotes() != 1 {
		t.Fatalf("switch must not create a second vote")
	}

	// 撤票
	if err := env.Polls.Vote(msg.ID, 2, optB); err != nil {
		t.Fatalf("toggle off err: %v", err)
	}
	if myOption(2) != nil {
		t.Fatalf("expected vote retracted")
	}
	if countVotes() != 0 {
		t.Fatalf("expected zero votes after retract")
	}
}

func TestVote_ClosedPollRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)

	soon := time.Now().Add(50 * time.Millisecond)
	msg, poll, err := env.Polls.Create(room.ID, 1, "限时", []string{"A", "B"}, false, &soon)
	if err != nil {
		t.Fatalf("Create err: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	if err := env.Polls.Vote(msg.ID, 2, poll.Options[0].ID); !errors.Is(err, ErrPollClosed) {
		t.Fatalf("vote after deadline should fail, got %v", err)
	}
}

func TestVote_OptionMustBelongToPoll(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)

	msg1, _, _ := env.Polls.Create(room.ID, 1, "甲", []string{"A", "B"}, false, nil)
	_, poll2, _ := env.Polls.Create(room.ID, 1, "乙", []string{"C", "D"}, false, nil)

	if err := env.Polls.Vote(msg1.ID, 2, poll2.Options[0].ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("cross-poll option should fail, got %v", err)
	}
}

func TestVote_MemberAndBanGate(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 3)
	room, _ := env.Rooms.CreatePrivateRoom(1, 2)
	msg, poll, _ := env.Polls.Create(room.ID, 1, "去哪", []string{"A", "B"}, false, nil)

	if err := env.Polls.Vote(msg.ID, 3, poll.Options[0].ID); !errors.Is(err, ErrNotMember) {
		t.Fatalf("non-member vote should fail, got %v", err)
	}

	env.banUser(t, 2, true, nil)
	err := env.Polls.Vote(msg.ID, 2, poll.Options[0].ID)
	var banErr *BanError
	if !errors.As(err, &banErr) {
		t.Fatalf("banned vote should fail, got %v", err)
	}
}

func TestListRoomMessages_PollTallyAndAnonymous(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 3)
	room, _ := env.Rooms.CreateGroupRoom("群", 1, []uint64{2, 3})

	msg, poll, _ := env.Polls.Create(room.ID, 1, "公开", []string{"A", "B"}, false, nil)
	anonMsg, anonPoll, _ := env.Polls.Create(room.ID, 1, "匿名", []string{"X", "Y"}, true, nil)

	if err := env.Polls.Vote(msg.ID, 2, poll.Options[0].ID); err != nil {
		t.Fatalf("vote err: %v", err)
	}
	if err := env.Polls.Vote(anonMsg.ID, 2, anonPoll.Options[0].ID); err != nil {
		t.Fatalf("anon vote err: %v", err)
	}

	list, err := env.Msgs.ListRoomMessages(room.ID, 2)
	if err != nil {
		t.Fatalf("ListRoomMessages err: %v", err)
	}

	var open, anon *PollViewDTO
	for _, m := range list {
		switch m.ID {
		case msg.ID:
			open = m.Poll
		case anonMsg.ID:
			anon = m.Poll
		}
	}
	if open == nil || anon == nil {
		t.Fatalf("poll messages must carry poll views")
	}

	if open.Options[0].Count != 1 || len(open.Options[0].Voters) != 1 || open.Options[0].Voters[0] != 2 {
		t.Fatalf("open poll should expose voters, got %+v", open.Options[0])
	}
	if open.MyOptionID == nil || *open.MyOptionID != poll.Options[0].ID {
		t.Fatalf("viewer's own option should be set")
	}
	// 未投名单按现任成员：1 和 3 还没投
	if len(open.NotVoted) != 2 {
		t.Fatalf("expected 2 not-voted members, got %v", open.NotVoted)
	}

	if anon.Options[0].Count != 1 {
		t.Fatalf("anonymous tally must still count")
	}
	if len(anon.Options[0].Voters) != 0 {
		t.Fatalf("anonymous poll must not expose voters, got %v", anon.Options[0].Voters)
	}
}
