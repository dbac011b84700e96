package feed

import (
	"context"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
)

type OpType int

const (
	FetchImages OpType = iota
	FetchCategories
)

type Request struct {
	Op       OpType
	Page     int
	Category string
	Gen      int64 // Generation counter to track stale requests
}

type Response struct {
	Op         OpType
	Page       int
	Category   string
	Records    []ImageRecord
	HasMore    bool
	Categories []Category
	Err        error
	Gen        int64 // Generation counter from request
}

// Service runs feed API calls off the UI loop behind request/response channels.
// Responses carry the request generation so the orchestrator can discard
// results that arrive after the category or list has already changed.
type Service struct {
	RequestChan  chan Request
	ResponseChan chan Response

	client  *Client
	perPage int
}

// NewService creates a feed service around an API client
func NewService(client *Client, perPage int) *Service {
	return &Service{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
		client:       client,
		perPage:      perPage,
	}
}

// Start processes feed requests. Run on its own goroutine.
func (s *Service) Start() {
	for req := range s.RequestChan {
		debug.Log(debug.FEED, "Request: op=%d page=%d category=%q gen=%d", req.Op, req.Page, req.Category, req.Gen)

		switch req.Op {
		case FetchImages:
			page, err := s.client.ListImages(context.Background(), req.Page, s.perPage, req.Category)
			s.ResponseChan <- Response{
				Op:       FetchImages,
				Page:     req.Page,
				Category: req.Category,
				Records:  page.Records,
				HasMore:  page.HasMore,
				Err:      err,
				Gen:      req.Gen,
			}
		case FetchCategories:
			cats, err := s.client.ListCategories(context.Background())
			s.ResponseChan <- Response{
				Op:         FetchCategories,
				Categories: cats,
				Err:        err,
				Gen:        req.Gen,
			}
		}
	}
}
