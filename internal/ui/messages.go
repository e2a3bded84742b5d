package ui

import (
	chatservice "github.com/kisandost/kisan-chat/internal/service/chat"
)

// rowsLoadedMsg carries the directory rows.
type rowsLoadedMsg struct {
	rows []chatservice.Row
}

// openConversationMsg asks the app to open the selected conversation.
type openConversationMsg struct {
	row chatservice.Row
}

// backMsg returns from a conversation to the directory.
type backMsg struct{}

// channelUpdateMsg reports new state or transcript rows.
type channelUpdateMsg struct {
	ch *chatservice.Channel
}

// channelDoneMsg reports the channel was closed.
type channelDoneMsg struct {
	ch *chatservice.Channel
}

// sendResultMsg reports the outcome of a send.
type sendResultMsg struct {
	text string
	err  error
}
