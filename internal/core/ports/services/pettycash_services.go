package services

import (
	"context"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
)

// PettyCashReaderSvc defines read operations for station floats
type PettyCashReaderSvc interface {
	GetStatus(ctx context.Context, stationID string) (*domain.PettyCashStatus, error)
	GetEntry(ctx context.Context, entryID string) (*domain.PettyCashEntry, error)
	ListEntries(ctx context.Context, filter domain.PettyCashFilter) ([]domain.PettyCashEntry, error)
}

// PettyCashWriterSvc defines the petty cash workflow
type PettyCashWriterSvc interface {
	SetupAccount(ctx context.Context, stationID string, req dto.SetupPettyCashRequest, userID string) (*domain.PettyCashAccount, error)
	UpdateLimits(ctx context.Context, stationID string, req dto.UpdatePettyCashLimitsRequest, userID string) (*domain.PettyCashAccount, error)
	RequestWithdrawal(ctx context.Context, stationID string, req dto.PettyCashWithdrawalRequest, actor domain.Actor) (*domain.PettyCashEntry, error)
	// Replenish is auto-approved when the actor's role may approve petty cash.
	Replenish(ctx context.Context, stationID string, req dto.PettyCashReplenishRequest, actor domain.Actor) (*domain.PettyCashEntry, error)
	ApproveEntry(ctx context.Context, entryID string, actor domain.Actor) (*domain.PettyCashEntry, error)
	RejectEntry(ctx context.Context, entryID string, req dto.RejectPettyCashRequest, actor domain.Actor) (*domain.PettyCashEntry, error)
	// DeleteEntry removes a pending or rejected entry, or reverses an approved one.
	DeleteEntry(ctx context.Context, entryID string, actor domain.Actor) error
}

// PettyCashSvcFacade combines the petty cash service interfaces
type PettyCashSvcFacade interface {
	PettyCashReaderSvc
	PettyCashWriterSvc
}
