package services

import (
	"context"

	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/dto"
)

// TransferSvc moves funds between two accounts atomically.
type TransferSvc interface {
	Transfer(ctx context.Context, req dto.TransferRequest, userID string) (*domain.Transfer, error)
	GetTransfer(ctx context.Context, transferID string) (*domain.Transfer, error)
}
