package tickets

import (
	"context"
	"errors"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/Domenick1991/equb/internal/metrics"
	"github.com/Domenick1991/equb/internal/repository"
	log "github.com/sirupsen/logrus"
)

type TicketUseCase interface {
	Availability(ctx context.Context, number int) (*domain.Availability, error)
	Board(ctx context.Context, cursor, limit int) (*domain.BoardPage, error)
	MyTickets(ctx context.Context, actor domain.Actor) ([]domain.Ticket, error)
	InitPool(ctx context.Context) (int64, error)
}

// BoardCache stores board pages under a version that InvalidateBoard bumps.
type BoardCache interface {
	GetBoardPage(ctx context.Context, cursor, limit int) (*domain.BoardPage, int64, error)
	SetBoardPage(ctx context.Context, version int64, cursor, limit int, page *domain.BoardPage) error
	InvalidateBoard(ctx context.Context) error
}

type PageLimits struct {
	PoolSize     int
	DefaultLimit int
	MaxLimit     int
}

type TicketService struct {
	repo   repository.TicketRepository
	cache  BoardCache
	limits PageLimits
}

func NewTicketService(repo repository.TicketRepository, cache BoardCache, limits PageLimits) *TicketService {
	return &TicketService{repo: repo, cache: cache, limits: limits}
}

// Availability is an unlocked read and may be stale by the time the caller
// acts on it.
func (s *TicketService) Availability(ctx context.Context, number int) (*domain.Availability, error) {
	result := &domain.Availability{Number: number}
	if number <= 0 || (s.limits.PoolSize > 0 && number > s.limits.PoolSize) {
		return result, nil
	}

	ticket, err := s.repo.GetByNumber(ctx, number)
	if errors.Is(err, domain.ErrTicketNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	result.Exists = true
	result.Taken = ticket.Taken()
	return result, nil
}

// Board returns one page of the ticket board. cursor is the last number of
// the previous page, 0 for the first page.
func (s *TicketService) Board(ctx context.Context, cursor, limit int) (*domain.BoardPage, error) {
	if cursor < 0 {
		cursor = 0
	}
	limit = s.clampLimit(limit)

	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		cached, v, err := s.cache.GetBoardPage(ctx, cursor, limit)
		switch {
		case err != nil:
			metrics.BoardCacheError()
			log.WithError(err).Debug("board cache read")
		case cached != nil:
			metrics.BoardCacheHit()
			return cached, nil
		default:
			metrics.BoardCacheMiss()
			version, cacheable = v, true
		}
	}

	// one extra row tells us whether a next page exists
	tickets, err := s.repo.ListAfter(ctx, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	page := &domain.BoardPage{Items: make([]domain.BoardItem, 0, limit)}
	for i, t := range tickets {
		if i == limit {
			next := page.Items[len(page.Items)-1].Number
			page.NextCursor = &next
			break
		}
		page.Items = append(page.Items, domain.BoardItem{Number: t.Number, Taken: t.Taken()})
	}

	if cacheable {
		if err := s.cache.SetBoardPage(ctx, version, cursor, limit, page); err != nil {
			log.WithError(err).Debug("board cache write")
		}
	}
	return page, nil
}

func (s *TicketService) MyTickets(ctx context.Context, actor domain.Actor) ([]domain.Ticket, error) {
	if actor.UserID <= 0 {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.ListByOwner(ctx, actor.UserID)
}

// InitPool creates any missing tickets of the configured pool.
func (s *TicketService) InitPool(ctx context.Context) (int64, error) {
	created, err := s.repo.InitPool(ctx, s.limits.PoolSize)
	if err != nil {
		return 0, err
	}
	if created > 0 {
		log.WithFields(log.Fields{"created": created, "pool_size": s.limits.PoolSize}).Info("ticket pool initialized")
		if s.cache != nil {
			if err := s.cache.InvalidateBoard(ctx); err != nil {
				log.WithError(err).Warn("invalidate ticket board cache")
			}
		}
	}
	return created, nil
}

func (s *TicketService) clampLimit(limit int) int {
	def, maxLimit := s.limits.DefaultLimit, s.limits.MaxLimit
	if def <= 0 {
		def = 100
	}
	if maxLimit <= 0 {
		maxLimit = 500
	}
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

var _ TicketUseCase = (*TicketService)(nil)
