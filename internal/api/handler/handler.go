package handler

import (
	"log/slog"

	"github.com/callouthq/dispatch/internal/api/storage"
	"github.com/callouthq/dispatch/internal/lifecycle"
	"github.com/callouthq/dispatch/internal/tracking"
	"github.com/callouthq/dispatch/shared/postgresql"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Machine *lifecycle.Machine
	Storage *storage.Storage
	Tracker *tracking.Tracker
	DB      *postgresql.Client
}

// JobHandler handles the customer/supplier-facing job endpoints
type JobHandler struct {
	logger  *slog.Logger
	machine *lifecycle.Machine
	storage *storage.Storage
	tracker *tracking.Tracker
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:  deps.Logger,
		machine: deps.Machine,
		storage: deps.Storage,
		tracker: deps.Tracker,
	}
}

// EngineerHandler handles the token-addressed engineer endpoints
type EngineerHandler struct {
	logger  *slog.Logger
	machine *lifecycle.Machine
	tracker *tracking.Tracker
}

// NewEngineerHandler creates a new EngineerHandler instance
func NewEngineerHandler(deps *Dependencies) *EngineerHandler {
	return &EngineerHandler{
		logger:  deps.Logger,
		machine: deps.Machine,
		tracker: deps.Tracker,
	}
}
