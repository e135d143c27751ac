package ui

import (
	"github.com/desertthunder/reportweaver/internal/models"
)

// stateMsg carries a snapshot published by the session controller.
type stateMsg models.SessionState

// submitDoneMsg is sent when a Submit call returns.
type submitDoneMsg struct {
	err error
}

// cancelDoneMsg is sent when a Cancel call returns with the backend's answer.
type cancelDoneMsg struct {
	text string
}

// channelMsg reports the outcome of opening the status channel.
type channelMsg struct {
	err error
}

// noticeMsg carries a one-line result of a side action (open, copy, theme save).
type noticeMsg struct {
	text string
	err  error
}
