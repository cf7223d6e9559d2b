package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebot/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// signRequest sets the signature headers the way Slack does.
func signRequest(req *http.Request, secret, body string, ts time.Time) {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + stamp + ":" + body))
	req.Header.Set("X-Slack-Request-Timestamp", stamp)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/slack/commands", VerifySignature("shh", discard), func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(b))
	})

	body := "command=%2Ftimer&user_id=U1"

	t.Run("valid signature passes body through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
		signRequest(req, "shh", body, time.Now())
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, body, rr.Body.String())
	})

	t.Run("tampered body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body+"&x=1"))
		signRequest(req, "shh", body, time.Now())
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
		signRequest(req, "shh", body, time.Now().Add(-time.Hour))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestMenuMessage(t *testing.T) {
	msg := MenuMessage()
	assert.Equal(t, "ephemeral", msg.ResponseType)
	require.Len(t, msg.Blocks.BlockSet, 2)

	actions, ok := msg.Blocks.BlockSet[1].(*slack.ActionBlock)
	require.True(t, ok)
	var ids []string
	for _, el := range actions.Elements.ElementSet {
		btn, ok := el.(*slack.ButtonBlockElement)
		require.True(t, ok)
		ids = append(ids, btn.ActionID)
	}
	assert.Equal(t, []string{ActionStartTracking, ActionStopTracking, ActionAddNote, ActionManualEntry, ActionAssignProject}, ids)
}

func TestModals(t *testing.T) {
	note := NoteModal("C1")
	assert.Equal(t, CallbackSubmitNote, note.CallbackID)
	assert.Equal(t, "C1", note.PrivateMetadata)

	manual := ManualEntryModal("C1")
	require.Len(t, manual.Blocks.BlockSet, 2)
	title := manual.Blocks.BlockSet[1].(*slack.InputBlock)
	assert.True(t, title.Optional)
	assert.Equal(t, FieldTitle, title.BlockID)

	assign := AssignProjectModal("", []domain.Project{{ID: 4, Name: "Alpha"}, {ID: 9, Name: "Beta"}})
	in := assign.Blocks.BlockSet[0].(*slack.InputBlock)
	sel := in.Element.(*slack.SelectBlockElement)
	require.Len(t, sel.Options, 2)
	assert.Equal(t, "9", sel.Options[1].Value)
	assert.Equal(t, "Beta", sel.Options[1].Text.Text)
}

func TestInputValue(t *testing.T) {
	state := &slack.ViewState{Values: map[string]map[string]slack.BlockAction{
		FieldNote:    {FieldNote: {Value: "hello"}},
		FieldProject: {FieldProject: {SelectedOption: slack.OptionBlockObject{Value: "7"}}},
	}}
	assert.Equal(t, "hello", InputValue(state, FieldNote))
	assert.Equal(t, "7", InputValue(state, FieldProject))
	assert.Equal(t, "", InputValue(state, FieldTitle))
	assert.Equal(t, "", InputValue(nil, FieldTitle))
}

func TestClientPostText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		got = map[string]string{"channel": r.FormValue("channel"), "text": r.FormValue("text")}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C1", "ts": "1700000000.000100"})
	}))
	defer srv.Close()

	c := NewClient("xoxb-test", srv.URL+"/", discard)
	require.NoError(t, c.PostText(context.Background(), "C1", "hi"))
	assert.Equal(t, map[string]string{"channel": "C1", "text": "hi"}, got)

	assert.Error(t, c.PostText(context.Background(), "", "hi"))
}
