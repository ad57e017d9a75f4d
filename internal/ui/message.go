package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageFetched MsgKind = iota
	MsgDetailFetched
	MsgInterestedFetched
	MsgInterestedToggled
	MsgProgressUpdate
	MsgSyncComplete
	MsgSessionChanged
)

type pageFetched struct {
	page models.Page[models.PerformanceListItem]
	err  error
}

type detailFetched struct {
	detail models.PerformanceDetail
	err    error
}

type interestedFetched struct {
	ids map[int64]bool
	err error
}

type interestedToggled struct {
	id         int64
	interested bool
	err        error
}

type syncComplete struct {
	result *tasks.SyncResult
	err    error
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(page models.Page[models.PerformanceListItem], err error) Msg {
	return Msg{kind: MsgPageFetched, data: pageFetched{page, err}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(detail models.PerformanceDetail, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailFetched{detail, err}}
}

// interestedFetchedMsg is the constructor for [MsgInterestedFetched]
func interestedFetchedMsg(items []models.InterestedPerformanceItem, err error) Msg {
	ids := make(map[int64]bool, len(items))
	for _, it := range items {
		ids[it.PerformanceID] = true
	}
	return Msg{kind: MsgInterestedFetched, data: interestedFetched{ids, err}}
}

// interestedToggledMsg is the constructor for [MsgInterestedToggled]
func interestedToggledMsg(id int64, interested bool, err error) Msg {
	return Msg{kind: MsgInterestedToggled, data: interestedToggled{id, interested, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(result *tasks.SyncResult, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncComplete{result, err}}
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(authenticated bool) Msg {
	return Msg{kind: MsgSessionChanged, data: authenticated}
}
