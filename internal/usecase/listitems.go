package usecase

import (
	"context"
	"kiosk/internal/domain"
)

// ListItemsUseCase отдает записи из архива для API.
type ListItemsUseCase struct {
	storage ItemsStorage
}

func NewListItemsUseCase(s ItemsStorage) *ListItemsUseCase {
	return &ListItemsUseCase{storage: s}
}

// ListItems возвращает записи архива, новые первыми.
func (uc *ListItemsUseCase) ListItems(ctx context.Context, filter domain.ItemFilter) ([]domain.ArchivedItem, error) {
	return uc.storage.ListItems(ctx, filter)
}
