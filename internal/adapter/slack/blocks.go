package slack

import (
	"strconv"

	"github.com/slack-go/slack"

	"timebot/internal/domain"
)

// Action ids of the menu buttons.
const (
	ActionStartTracking = "start_tracking"
	ActionStopTracking  = "stop_tracking"
	ActionAddNote       = "add_note"
	ActionManualEntry   = "manual_entry"
	ActionAssignProject = "assign_project"
)

// Callback ids of the modals.
const (
	CallbackSubmitNote          = "submit_note"
	CallbackSubmitManualEntry   = "submit_manual_entry"
	CallbackSubmitAssignProject = "submit_assign_project"
)

// Input field ids; each input uses the same id for its block and its element.
const (
	FieldNote     = "note"
	FieldDuration = "duration"
	FieldTitle    = "title"
	FieldProject  = "project"
)

const menuBlockID = "timer_menu"

func plain(s string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, s, false, false)
}

// MenuMessage is the reply to the slash command: five buttons, one per action.
func MenuMessage() slack.Msg {
	buttons := []slack.BlockElement{
		slack.NewButtonBlockElement(ActionStartTracking, ActionStartTracking, plain("Start Timer")).WithStyle(slack.StylePrimary),
		slack.NewButtonBlockElement(ActionStopTracking, ActionStopTracking, plain("Stop Timer")).WithStyle(slack.StyleDanger),
		slack.NewButtonBlockElement(ActionAddNote, ActionAddNote, plain("Add Note")),
		slack.NewButtonBlockElement(ActionManualEntry, ActionManualEntry, plain("Manual Entry")),
		slack.NewButtonBlockElement(ActionAssignProject, ActionAssignProject, plain("Assign Project")),
	}
	return slack.Msg{
		ResponseType: "ephemeral",
		Text:         "Time tracker",
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*Time tracker* - what would you like to do?", false, false), nil, nil),
			slack.NewActionBlock(menuBlockID, buttons...),
		}},
	}
}

func modal(callbackID, title, channelID string, blocks ...slack.Block) slack.ModalViewRequest {
	return slack.ModalViewRequest{
		Type:            slack.VTModal,
		CallbackID:      callbackID,
		Title:           plain(title),
		Submit:          plain("Save"),
		Close:           plain("Cancel"),
		PrivateMetadata: channelID,
		Blocks:          slack.Blocks{BlockSet: blocks},
	}
}

// NoteModal asks for the note of the latest entry.
func NoteModal(channelID string) slack.ModalViewRequest {
	in := slack.NewInputBlock(FieldNote, plain("Note"), nil,
		slack.NewPlainTextInputBlockElement(plain("What did you work on?"), FieldNote))
	return modal(CallbackSubmitNote, "Add Note", channelID, in)
}

// ManualEntryModal asks for a duration in minutes and an optional title.
func ManualEntryModal(channelID string) slack.ModalViewRequest {
	duration := slack.NewInputBlock(FieldDuration, plain("Duration (minutes)"), plain("For example 45 or 1.5"),
		slack.NewPlainTextInputBlockElement(plain("30"), FieldDuration))
	title := slack.NewInputBlock(FieldTitle, plain("Title"), nil,
		slack.NewPlainTextInputBlockElement(plain("Optional"), FieldTitle))
	title.Optional = true
	return modal(CallbackSubmitManualEntry, "Manual Entry", channelID, duration, title)
}

// AssignProjectModal offers the user's projects as a static select.
func AssignProjectModal(channelID string, projects []domain.Project) slack.ModalViewRequest {
	options := make([]*slack.OptionBlockObject, 0, len(projects))
	for _, p := range projects {
		options = append(options, slack.NewOptionBlockObject(strconv.FormatInt(p.ID, 10), plain(p.Name), nil))
	}
	sel := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plain("Choose a project"), FieldProject, options...)
	in := slack.NewInputBlock(FieldProject, plain("Project"), nil, sel)
	return modal(CallbackSubmitAssignProject, "Assign Project", channelID, in)
}

// InputValue returns the submitted value of a text input or select field.
func InputValue(state *slack.ViewState, field string) string {
	if state == nil {
		return ""
	}
	a, ok := state.Values[field][field]
	if !ok {
		return ""
	}
	if a.SelectedOption.Value != "" {
		return a.SelectedOption.Value
	}
	return a.Value
}
