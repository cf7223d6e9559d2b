package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	slk "timebot/internal/adapter/slack"
	"timebot/internal/requestid"
	"timebot/internal/usecase"
)

// handleCommand answers the slash command with the action menu.
func (a *App) handleCommand(c *gin.Context) {
	cmd, err := slack.SlashCommandParse(c.Request)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	a.log.Info("menu requested",
		slog.String("request_id", requestid.From(c.Request.Context())),
		slog.String("user", cmd.UserID),
		slog.String("command", cmd.Command))
	c.JSON(http.StatusOK, slk.MenuMessage())
}

// interactionTimeout bounds the work behind one acknowledged interaction.
const interactionTimeout = 30 * time.Second

// handleInteraction dispatches button clicks and modal submissions.
// Every outcome is reported back as a chat message, so the request is
// acknowledged with an empty 200 as soon as the payload parses and the work
// continues after the response, outside Slack's three-second window.
func (a *App) handleInteraction(c *gin.Context) {
	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(c.PostForm("payload")), &cb); err != nil {
		a.log.Warn("bad interaction payload", slog.String("error", err.Error()))
		c.Status(http.StatusBadRequest)
		return
	}

	// The request context ends with the response; keep its values only.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), interactionTimeout)
	a.inflight.Add(1)
	go func() {
		defer a.inflight.Done()
		defer cancel()
		a.dispatch(ctx, &cb)
	}()
	c.Status(http.StatusOK)
}

func (a *App) dispatch(ctx context.Context, cb *slack.InteractionCallback) {
	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		for _, act := range cb.ActionCallback.BlockActions {
			a.handleAction(ctx, cb, act.ActionID)
		}
	case slack.InteractionTypeViewSubmission:
		a.handleSubmission(ctx, cb)
	default:
		a.log.Debug("ignoring interaction", slog.String("type", string(cb.Type)))
	}
}

func (a *App) handleAction(ctx context.Context, cb *slack.InteractionCallback, actionID string) {
	user, channel := cb.User.ID, cb.Channel.ID
	switch actionID {
	case slk.ActionStartTracking:
		_, err := a.tracker.StartTracking(ctx, user, channel)
		a.reply(ctx, user, channel, usecase.Reply(err, usecase.MsgStarted))
	case slk.ActionStopTracking:
		e, err := a.tracker.StopTracking(ctx, user)
		msg := usecase.Reply(err, "")
		if err == nil {
			msg = usecase.StoppedMessage(e)
		}
		a.reply(ctx, user, channel, msg)
	case slk.ActionAddNote:
		a.openModal(ctx, cb, slk.NoteModal(channel))
	case slk.ActionManualEntry:
		a.openModal(ctx, cb, slk.ManualEntryModal(channel))
	case slk.ActionAssignProject:
		projects, err := a.tracker.ListProjectsForAssignment(ctx, user)
		if err != nil {
			a.reply(ctx, user, channel, usecase.Reply(err, ""))
			return
		}
		if len(projects) == 0 {
			a.reply(ctx, user, channel, usecase.MsgNoProjects)
			return
		}
		a.openModal(ctx, cb, slk.AssignProjectModal(channel, projects))
	default:
		a.log.Debug("ignoring action", slog.String("action", actionID))
	}
}

func (a *App) handleSubmission(ctx context.Context, cb *slack.InteractionCallback) {
	user := cb.User.ID
	channel := cb.View.PrivateMetadata
	state := cb.View.State

	switch cb.View.CallbackID {
	case slk.CallbackSubmitNote:
		err := a.tracker.AddNote(ctx, user, slk.InputValue(state, slk.FieldNote))
		a.reply(ctx, user, channel, usecase.Reply(err, usecase.MsgNoteAdded))

	case slk.CallbackSubmitManualEntry:
		minutes, err := usecase.ParseDurationMinutes(slk.InputValue(state, slk.FieldDuration))
		if err != nil {
			a.reply(ctx, user, channel, usecase.Reply(err, ""))
			return
		}
		var title *string
		if t := slk.InputValue(state, slk.FieldTitle); t != "" {
			title = &t
		}
		e, err := a.tracker.CreateManualEntry(ctx, user, minutes, title)
		msg := usecase.Reply(err, "")
		if err == nil {
			msg = usecase.ManualMessage(e)
		}
		a.reply(ctx, user, channel, msg)

	case slk.CallbackSubmitAssignProject:
		raw := slk.InputValue(state, slk.FieldProject)
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			a.reply(ctx, user, channel, usecase.Reply(fmt.Errorf("invalid project selection %q", raw), ""))
			return
		}
		err = a.tracker.AssignProject(ctx, user, projectID)
		a.reply(ctx, user, channel, usecase.Reply(err, usecase.MsgProjectSet))

	default:
		a.log.Debug("ignoring view submission", slog.String("callback_id", cb.View.CallbackID))
	}
}

func (a *App) openModal(ctx context.Context, cb *slack.InteractionCallback, view slack.ModalViewRequest) {
	if err := a.chat.OpenModal(ctx, cb.TriggerID, view); err != nil {
		a.log.Error("open modal failed",
			slog.String("request_id", requestid.From(ctx)),
			slog.String("callback_id", view.CallbackID),
			slog.String("error", err.Error()))
		a.reply(ctx, cb.User.ID, cb.Channel.ID, usecase.Reply(err, ""))
	}
}

// reply posts text to the originating channel, or to the user directly when
// the channel is unknown.
func (a *App) reply(ctx context.Context, userID, channelID, text string) {
	target := channelID
	if target == "" {
		target = userID
	}
	if err := a.chat.PostText(ctx, target, text); err != nil {
		a.log.Error("reply failed",
			slog.String("request_id", requestid.From(ctx)),
			slog.String("user", userID),
			slog.String("channel", target),
			slog.String("error", err.Error()))
	}
}
