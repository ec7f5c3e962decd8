package campus_chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campus-chat/response"
	"github.com/campuslink/campus-chat/service"
)

func newTestGinContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	return ctx, w
}

// 禁言拦截的响应必须带结构化字段，客户端才能按 expires_at 渲染倒计时。
func TestWriteServiceError_TemporaryBanPayload(t *testing.T) {
	ctx, w := newTestGinContext(t)

	expires := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	writeServiceError(ctx, &service.BanError{Reason: "违规", ExpiresAt: &expires})

	if w.Code != http.StatusOK {
		t.Fatalf("business errors ride HTTP 200, got %d", w.Code)
	}

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Permanent bool       `json:"permanent"`
			Reason    string     `json:"reason"`
			ExpiresAt *time.Time `json:"expires_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != response.CodeChatBanned {
		t.Fatalf("expected code %d, got %d", response.CodeChatBanned, resp.Code)
	}
	if resp.Data.Permanent {
		t.Fatalf("temporary ban must not read permanent")
	}
	if resp.Data.Reason != "违规" {
		t.Fatalf("expected reason in payload, got %q", resp.Data.Reason)
	}
	if resp.Data.ExpiresAt == nil || !resp.Data.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expires_at %v, got %v", expires, resp.Data.ExpiresAt)
	}
}

func TestWriteServiceError_PermanentBanPayload(t *testing.T) {
	ctx, w := newTestGinContext(t)

	writeServiceError(ctx, &service.BanError{Permanent: true, Reason: "多次违规"})

	var resp struct {
		Code int `json:"code"`
		Data struct {
			Permanent bool       `json:"permanent"`
			ExpiresAt *time.Time `json:"expires_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Code != response.CodeChatBanned {
		t.Fatalf("expected code %d, got %d", response.CodeChatBanned, resp.Code)
	}
	if !resp.Data.Permanent {
		t.Fatalf("permanent flag should be set")
	}
	if resp.Data.ExpiresAt != nil {
		t.Fatalf("permanent ban carries no expiry, got %v", resp.Data.ExpiresAt)
	}
}
