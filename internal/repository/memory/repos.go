package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"toolshare-backend/internal/domain"
)

type userRepository struct {
	with access
	now  func() time.Time
}

func (r *userRepository) Create(_ context.Context, u *domain.User) error {
	return r.with(true, func(s *state) error {
		for _, existing := range s.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return fmt.Errorf("create user: %w: email %s already registered", domain.ErrStorageFailure, u.Email)
			}
		}
		if u.Role == "" {
			u.Role = domain.UserRoleUser
		}
		u.TrustScore = domain.TrustScoreDefault
		s.lastUserID++
		u.ID = s.lastUserID
		u.CreatedAt = r.now()
		s.users[u.ID] = *u
		return nil
	})
}

func (r *userRepository) GetByID(_ context.Context, id int32) (*domain.User, error) {
	var out *domain.User
	err := r.with(false, func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

// GetByIDForUpdate is GetByID; transactions already run one at a time.
func (r *userRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepository) UpdateTrustScore(_ context.Context, id int32, score float64) error {
	return r.with(true, func(s *state) error {
		u, ok := s.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		u.TrustScore = score
		s.users[id] = u
		return nil
	})
}

func (r *userRepository) ListToolOwnerIDs(_ context.Context) ([]int32, error) {
	var ids []int32
	err := r.with(false, func(s *state) error {
		seen := map[int32]bool{}
		for _, t := range s.tools {
			if !seen[t.OwnerID] {
				seen[t.OwnerID] = true
				ids = append(ids, t.OwnerID)
			}
		}
		slices.Sort(ids)
		return nil
	})
	return ids, err
}

type toolRepository struct {
	with access
	now  func() time.Time
}

func (r *toolRepository) Create(_ context.Context, t *domain.Tool) error {
	return r.with(true, func(s *state) error {
		if _, ok := s.users[t.OwnerID]; !ok {
			return fmt.Errorf("create tool: %w", domain.ErrUserNotFound)
		}
		s.lastToolID++
		t.ID = s.lastToolID
		t.CreatedAt = r.now()
		stored := *t
		stored.OwnerName = ""
		s.tools[t.ID] = stored
		return nil
	})
}

func (r *toolRepository) GetByID(_ context.Context, id int32) (*domain.Tool, error) {
	var out *domain.Tool
	err := r.with(false, func(s *state) error {
		t, ok := s.tools[id]
		if !ok {
			return domain.ErrToolNotFound
		}
		v := s.toolView(t)
		out = &v
		return nil
	})
	return out, err
}

func (r *toolRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Tool, error) {
	return r.GetByID(ctx, id)
}

func (r *toolRepository) Update(_ context.Context, id int32, patch domain.ToolPatch) (*domain.Tool, error) {
	var out *domain.Tool
	err := r.with(true, func(s *state) error {
		t, ok := s.tools[id]
		if !ok {
			return domain.ErrToolNotFound
		}
		patch.Apply(&t)
		s.tools[id] = t
		v := s.toolView(t)
		out = &v
		return nil
	})
	return out, err
}

// Delete removes the tool with its reservations and their reviews.
func (r *toolRepository) Delete(_ context.Context, id int32) error {
	return r.with(true, func(s *state) error {
		if _, ok := s.tools[id]; !ok {
			return domain.ErrToolNotFound
		}
		delete(s.tools, id)
		for rid, res := range s.reservations {
			if res.ToolID != id {
				continue
			}
			delete(s.reservations, rid)
			for vid, rv := range s.reviews {
				if rv.ReservationID == rid {
					delete(s.reviews, vid)
				}
			}
		}
		return nil
	})
}

func (r *toolRepository) ListByOwner(_ context.Context, ownerID int32) ([]domain.Tool, error) {
	var tools []domain.Tool
	err := r.with(false, func(s *state) error {
		for _, t := range s.tools {
			if t.OwnerID == ownerID {
				tools = append(tools, s.toolView(t))
			}
		}
		slices.SortFunc(tools, func(a, b domain.Tool) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
		return nil
	})
	return tools, err
}

func (r *toolRepository) Search(_ context.Context, filter domain.ToolFilter, limit, offset int) ([]domain.Tool, error) {
	var tools []domain.Tool
	err := r.with(false, func(s *state) error {
		for _, t := range s.tools {
			if filter.Matches(&t) {
				tools = append(tools, s.toolView(t))
			}
		}
		slices.SortFunc(tools, func(a, b domain.Tool) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return paginate(tools, limit, offset), err
}

type reservationRepository struct {
	with access
	now  func() time.Time
}

func (r *reservationRepository) Create(_ context.Context, rt *domain.Reservation) error {
	return r.with(true, func(s *state) error {
		if _, ok := s.tools[rt.ToolID]; !ok {
			return fmt.Errorf("create reservation: %w", domain.ErrToolNotFound)
		}
		if _, ok := s.users[rt.RenterID]; !ok {
			return fmt.Errorf("create reservation: %w", domain.ErrUserNotFound)
		}
		s.lastReservationID++
		rt.ID = s.lastReservationID
		rt.CreatedAt = r.now()
		s.reservations[rt.ID] = domain.Reservation{
			ID:         rt.ID,
			ToolID:     rt.ToolID,
			RenterID:   rt.RenterID,
			StartDate:  rt.StartDate,
			EndDate:    rt.EndDate,
			TotalPrice: rt.TotalPrice,
			Status:     rt.Status,
			CreatedAt:  rt.CreatedAt,
		}
		return nil
	})
}

func (r *reservationRepository) GetByID(_ context.Context, id int32) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := r.with(false, func(s *state) error {
		rt, ok := s.reservations[id]
		if !ok {
			return domain.ErrReservationNotFound
		}
		v := s.reservationView(rt)
		out = &v
		return nil
	})
	return out, err
}

func (r *reservationRepository) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservationRepository) UpdateStatus(_ context.Context, id int32, status domain.ReservationStatus) error {
	return r.with(true, func(s *state) error {
		rt, ok := s.reservations[id]
		if !ok {
			return domain.ErrReservationNotFound
		}
		rt.Status = status
		s.reservations[id] = rt
		return nil
	})
}

func (r *reservationRepository) ListBlocking(_ context.Context, toolID int32, from domain.Date) ([]domain.Reservation, error) {
	list, err := r.filter(func(rt domain.Reservation) bool {
		return rt.ToolID == toolID && rt.Status.Blocking() && !rt.EndDate.Before(from)
	})
	slices.SortStableFunc(list, func(a, b domain.Reservation) int { return a.StartDate.Time().Compare(b.StartDate.Time()) })
	return list, err
}

func (r *reservationRepository) ListByParticipant(_ context.Context, userID int32) ([]domain.Reservation, error) {
	list, err := r.filter(func(rt domain.Reservation) bool {
		return rt.RenterID == userID || rt.OwnerID == userID
	})
	slices.SortFunc(list, func(a, b domain.Reservation) int {
		if c := b.StartDate.Time().Compare(a.StartDate.Time()); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return list, err
}

func (r *reservationRepository) CompleteEndedBefore(_ context.Context, day domain.Date) ([]domain.Reservation, error) {
	return r.transitionWhere(domain.ReservationStatusCompleted, func(rt domain.Reservation) bool {
		return rt.Status == domain.ReservationStatusApproved && rt.EndDate.Before(day)
	})
}

func (r *reservationRepository) CancelPendingStartedBefore(_ context.Context, day domain.Date) ([]domain.Reservation, error) {
	return r.transitionWhere(domain.ReservationStatusCancelled, func(rt domain.Reservation) bool {
		return rt.Status == domain.ReservationStatusPending && rt.StartDate.Before(day)
	})
}

// filter returns joined views of the reservations matching keep, in id
// order.
func (r *reservationRepository) filter(keep func(domain.Reservation) bool) ([]domain.Reservation, error) {
	var list []domain.Reservation
	err := r.with(false, func(s *state) error {
		for _, rt := range s.reservations {
			if v := s.reservationView(rt); keep(v) {
				list = append(list, v)
			}
		}
		slices.SortFunc(list, func(a, b domain.Reservation) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return list, err
}

func (r *reservationRepository) transitionWhere(to domain.ReservationStatus, match func(domain.Reservation) bool) ([]domain.Reservation, error) {
	var changed []domain.Reservation
	err := r.with(true, func(s *state) error {
		for id, rt := range s.reservations {
			if !match(rt) {
				continue
			}
			rt.Status = to
			s.reservations[id] = rt
			changed = append(changed, s.reservationView(rt))
		}
		slices.SortFunc(changed, func(a, b domain.Reservation) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return changed, err
}

type reviewRepository struct {
	with access
	now  func() time.Time
}

func (r *reviewRepository) Create(_ context.Context, rv *domain.Review) error {
	return r.with(true, func(s *state) error {
		if _, ok := s.reservations[rv.ReservationID]; !ok {
			return fmt.Errorf("create review: %w", domain.ErrReservationNotFound)
		}
		s.lastReviewID++
		rv.ID = s.lastReviewID
		rv.CreatedAt = r.now()
		stored := *rv
		stored.ReviewerName = ""
		s.reviews[rv.ID] = stored
		return nil
	})
}

func (r *reviewRepository) ListByTool(_ context.Context, toolID int32) ([]domain.Review, error) {
	var reviews []domain.Review
	err := r.with(false, func(s *state) error {
		for _, rv := range s.reviews {
			rt := s.reservations[rv.ReservationID]
			if rt.ToolID != toolID {
				continue
			}
			rv.ReviewerName = s.users[rt.RenterID].Name
			reviews = append(reviews, rv)
		}
		slices.SortFunc(reviews, func(a, b domain.Review) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
		return nil
	})
	return reviews, err
}

func (r *reviewRepository) StatsByTool(_ context.Context, toolID int32) (domain.RatingStats, error) {
	return r.stats(func(s *state, rt domain.Reservation) bool { return rt.ToolID == toolID })
}

func (r *reviewRepository) StatsByOwner(_ context.Context, ownerID int32) (domain.RatingStats, error) {
	return r.stats(func(s *state, rt domain.Reservation) bool { return s.tools[rt.ToolID].OwnerID == ownerID })
}

func (r *reviewRepository) stats(match func(*state, domain.Reservation) bool) (domain.RatingStats, error) {
	var stats domain.RatingStats
	err := r.with(false, func(s *state) error {
		for _, rv := range s.reviews {
			rt, ok := s.reservations[rv.ReservationID]
			if !ok || !match(s, rt) {
				continue
			}
			stats.Count++
			stats.Sum += int64(rv.Rating)
		}
		return nil
	})
	return stats, err
}
