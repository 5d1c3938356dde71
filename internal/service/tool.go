package service

import (
	"context"
	"fmt"
	"iter"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/logger"
	"toolshare-backend/internal/repository"
)

const defaultSearchPageSize = 50

type toolService struct {
	store    repository.Store
	pageSize int
}

func NewToolService(store repository.Store) ToolService {
	return &toolService{store: store, pageSize: defaultSearchPageSize}
}

func (s *toolService) AddTool(ctx context.Context, ownerID int32, tool *domain.Tool) error {
	tool.OwnerID = ownerID
	if tool.Status == "" {
		tool.Status = domain.ToolStatusAvailable
	}
	if err := tool.Validate(); err != nil {
		return err
	}
	if err := s.store.Tools().Create(ctx, tool); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Tool added", "toolID", tool.ID, "ownerID", ownerID)
	return nil
}

func (s *toolService) GetTool(ctx context.Context, id int32) (*domain.ToolDetail, error) {
	tool, err := s.store.Tools().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Reviews().StatsByTool(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ToolDetail{Tool: *tool, Ratings: stats}, nil
}

func (s *toolService) UpdateTool(ctx context.Context, actorID, id int32, patch domain.ToolPatch) (*domain.Tool, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Tool
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		tool, err := tx.Tools().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if tool.OwnerID != actorID {
			return fmt.Errorf("%w: tool %d belongs to another user", domain.ErrForbidden, id)
		}
		updated, err = tx.Tools().Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTool removes a tool together with its reservations and reviews, then
// recomputes the owner's score since those reviews no longer count.
func (s *toolService) DeleteTool(ctx context.Context, actorID int32, isAdmin bool, id int32) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		tool, err := tx.Tools().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if tool.OwnerID != actorID && !isAdmin {
			return fmt.Errorf("%w: tool %d belongs to another user", domain.ErrForbidden, id)
		}
		if err := tx.Tools().Delete(ctx, id); err != nil {
			return err
		}
		_, err = recomputeTrustScore(ctx, tx, tool.OwnerID)
		return err
	})
}

func (s *toolService) ListMyTools(ctx context.Context, ownerID int32) ([]domain.Tool, error) {
	return s.store.Tools().ListByOwner(ctx, ownerID)
}

func (s *toolService) SearchTools(ctx context.Context, filter domain.ToolFilter) iter.Seq2[domain.Tool, error] {
	return func(yield func(domain.Tool, error) bool) {
		for offset := 0; ; offset += s.pageSize {
			page, err := s.store.Tools().Search(ctx, filter, s.pageSize, offset)
			if err != nil {
				yield(domain.Tool{}, err)
				return
			}
			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
		}
	}
}
