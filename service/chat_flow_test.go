package service

import (
	"testing"

	"github.com/campuslink/campus-chat/message"
)

// 私聊全流程：建房 -> 发消息 -> 对方未读 -> 对方已读 -> 已读数归零。
func TestChatFlow_PrivateRoomReadReceipts(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	room, err := env.Rooms.CreatePrivateRoom(1, 2)
	if err != nil {
		t.Fatalf("CreatePrivateRoom err: %v", err)
	}

	msg, err := env.Msgs.Send(room.ID, 1, message.Text{Content: "hi"})
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}

	// B 还没读：A 看到 read_count=1
	list, err := env.Msgs.ListRoomMessages(room.ID, 1)
	if err != nil {
		t.Fatalf("ListRoomMessages err: %v", err)
	}
	if len(list) != 1 || list[0].ReadCount != 1 {
		t.Fatalf("expected read_count 1 before B reads, got %+v", list)
	}

	// B 拉列表并上报已读
	if _, err := env.Msgs.ListRoomMessages(room.ID, 2); err != nil {
		t.Fatalf("B list err: %v", err)
	}
	if err := env.Reads.MarkRead(room.ID, 2, msg.ID); err != nil {
		t.Fatalf("MarkRead err: %v", err)
	}

	list, _ = env.Msgs.ListRoomMessages(room.ID, 1)
	if list[0].ReadCount != 0 {
		t.Fatalf("expected read_count 0 after B reads, got %d", list[0].ReadCount)
	}
}

// 投票全流程：建投票 -> B 投红 -> 计票与本人票位 -> 再点红撤票归零。
func TestChatFlow_PollToggle(t *testing.T) {
	env := newTestEnv(t)
	env.seedUsers(t, 2)

	room, _ := env.Rooms.CreatePrivateRoom(1, 2)
	msg, poll, err := env.Polls.Create(room.ID, 1, "队服颜色", []string{"red", "blue"}, false, nil)
	if err != nil {
		t.Fatalf("poll create err: %v", err)
	}
	red := poll.Options[0].ID

	if err := env.Polls.Vote(msg.ID, 2, red); err != nil {
		t.Fatalf("vote err: %v", err)
	}

	view := pollViewOf(t, env, room.ID, 2, msg.ID)
	if view.Options[0].Count != 1 || view.Options[1].Count != 0 {
		t.Fatalf("expected red:1 blue:0, got %+v", view.Options)
	}
	if view.MyOptionID == nil || *view.MyOptionID != red {
		t.Fatalf("B's own vote should be red")
	}

	// 再点同一选项：撤票
	if err := env.Polls.Vote(msg.ID, 2, red); err != nil {
		t.Fatalf("toggle err: %v", err)
	}
	view = pollViewOf(t, env, room.ID, 2, msg.ID)
	if view.Options[0].Count != 0 || view.Options[1].Count != 0 {
		t.Fatalf("expected red:0 blue:0 after toggle, got %+v", view.Options)
	}
	if view.MyOptionID != nil {
		t.Fatalf("B's own vote should be cleared")
	}
}

func pollViewOf(t *testing.T, env *testEnv, roomID, viewerID, messageID uint64) *PollViewDTO {
	t.Helper()
	list, err := env.Msgs.ListRoomMessages(roomID, viewerID)
	if err != nil {
		t.Fatalf("ListRoomMessages err: %v", err)
	}
	for _, m := range list {
		if m.ID == messageID {
			if m.Poll == nil {
				t.Fatalf("message %d should carry a poll view", messageID)
			}
			return m.Poll
		}
	}
	t.Fatalf("message %d not in list", messageID)
	return nil
}
