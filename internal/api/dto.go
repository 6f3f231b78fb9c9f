package api

import (
	"github.com/starford/granola-sync/internal/index"
	"github.com/starford/granola-sync/internal/noteservice"
	"github.com/starford/granola-sync/internal/syncer"
)

// CustomPropertyRequest is the request body for setting a metadata property.
type CustomPropertyRequest struct {
	Name  string `json:"name" example:"type" validate:"required"`
	Value string `json:"value" example:"meeting, {attendees}"`
}

// SyncResponse reports the outcome of a pass.
type SyncResponse struct {
	Synced  int      `json:"synced" example:"2" validate:"required"`
	Titles  []string `json:"titles" validate:"required"`
	Skipped int      `json:"skipped" example:"0"`
	Failed  int      `json:"failed" example:"0"`
}

func newSyncResponse(res syncer.Result) SyncResponse {
	titles := res.SyncedTitles
	if titles == nil {
		titles = []string{}
	}
	return SyncResponse{
		Synced:  res.SyncedCount,
		Titles:  titles,
		Skipped: res.Skipped,
		Failed:  res.Failed,
	}
}

// SyncStatus is the live sync state (aliased from the domain layer).
type SyncStatus = noteservice.SyncStatus

// DocumentItem is a synced document in a list response (aliased from the domain layer).
type DocumentItem = noteservice.DocumentItem

// DocumentListResponse wraps paginated document listings.
type DocumentListResponse struct {
	Documents []DocumentItem `json:"documents" validate:"required"`
	Total     int            `json:"total" example:"42" validate:"required"`
}

// RunListResponse wraps recent sync runs.
type RunListResponse struct {
	Runs []index.Run `json:"runs" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}
