package service

import (
	"context"
	"errors"
	"fmt"

	"novel-reader/internal/evaluator"
	"novel-reader/internal/progress"
	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Purchaser - атомарная покупка премиального выбора (transaction.Manager).
type Purchaser interface {
	PurchasePremiumChoice(ctx context.Context, userID, storyID, choiceID uuid.UUID, cost int64) (*models.PurchaseResult, error)
}

// StoryEngine определяет операции чтения истории.
type StoryEngine interface {
	// Navigate переводит пользователя на следующую страницу и возвращает снимок сессии.
	Navigate(ctx context.Context, req models.NavigationRequest) (*models.StorySession, error)
	// Restart возвращает пользователя на первую страницу истории. Покупки сохраняются.
	Restart(ctx context.Context, userID, storyID uuid.UUID) (*models.StorySession, error)
	GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.UserProgress, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	// CreditBalance пополняет баланс по запросу платежного сервиса.
	CreditBalance(ctx context.Context, userID uuid.UUID, amount int64) (int64, error)
}

// Deps - зависимости StoryEngine. Sink вызывается на горутине запроса
// и не должен блокироваться (в сервере это messaging.AsyncSink).
type Deps struct {
	Graph     interfaces.GraphStore
	Balances  interfaces.BalanceProvider
	Progress  interfaces.ProgressRepository
	Ledger    interfaces.PurchaseLedger
	Purchaser Purchaser
	Tracker   *progress.Tracker
	Sink      interfaces.AnalyticsSink
}

type storyEngineImpl struct {
	graph     interfaces.GraphStore
	balances  interfaces.BalanceProvider
	progress  interfaces.ProgressRepository
	ledger    interfaces.PurchaseLedger
	purchaser Purchaser
	tracker   *progress.Tracker
	sink      interfaces.AnalyticsSink
	logger    *zap.Logger
}

// NewStoryEngine creates a new StoryEngine. Tracker defaults to a wall-clock tracker.
func NewStoryEngine(deps Deps, logger *zap.Logger) StoryEngine {
	tracker := deps.Tracker
	if tracker == nil {
		tracker = progress.NewTracker(nil)
	}
	return &storyEngineImpl{
		graph:     deps.Graph,
		balances:  deps.Balances,
		progress:  deps.Progress,
		ledger:    deps.Ledger,
		purchaser: deps.Purchaser,
		tracker:   tracker,
		sink:      deps.Sink,
		logger:    logger.Named("StoryEngine"),
	}
}

func (s *storyEngineImpl) Navigate(ctx context.Context, req models.NavigationRequest) (*models.StorySession, error) {
	log := s.logger.With(zap.Stringer("userID", req.UserID), zap.Stringer("storyID", req.StoryID))

	current, err := s.loadProgress(ctx, req.UserID, req.StoryID)
	if err != nil {
		return nil, err
	}

	// 1. Определяем целевую страницу. Страница читается до покупки, чтобы не
	// списать валюту за ребро, ведущее в никуда или в чужую историю.
	var choice *models.Choice
	var pageID uuid.UUID
	switch target := req.Target.(type) {
	case models.ByChoice:
		choice, err = s.graph.GetChoice(ctx, target.ChoiceID)
		if err != nil {
			log.Info("Choice lookup failed", zap.Stringer("choiceID", target.ChoiceID), zap.Error(err))
			return nil, err
		}
		pageID = choice.ToPageID
	case models.ByTargetPage:
		pageID = target.PageID
	case models.Resume:
		if current != nil && current.CurrentPageID != uuid.Nil {
			pageID = current.CurrentPageID
		} else if pageID, err = s.graph.GetFirstPageID(ctx, req.StoryID); err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoTarget
	}

	page, err := s.fetchStoryPage(ctx, req.StoryID, pageID)
	if err != nil {
		log.Info("Target page lookup failed", zap.Stringer("pageID", pageID), zap.Error(err))
		return nil, err
	}

	// Прямой переход (закладка) возможен только на прочитанную страницу или на первую,
	// иначе им можно обойти премиальный выбор.
	if _, jump := req.Target.(models.ByTargetPage); jump {
		if err := s.checkJump(ctx, current, req.StoryID, page.ID); err != nil {
			log.Info("Direct jump rejected", zap.Stringer("pageID", page.ID), zap.Error(err))
			return nil, err
		}
	}

	if current == nil {
		current = models.NewUserProgress(req.UserID, req.StoryID)
	}

	// 2. Премиальный выбор, которого нет в прогрессе.
	var events []models.AnalyticsEvent
	var choiceID *uuid.UUID
	if choice != nil {
		choiceID = &choice.ID
		if choice.IsPremium && !current.HasPurchased(choice.ID) {
			var purchaseEvent *models.AnalyticsEvent
			current, purchaseEvent, err = s.acquireChoice(ctx, current, choice)
			if err != nil {
				return nil, err
			}
			if purchaseEvent != nil {
				events = append(events, *purchaseEvent)
			}
		}
	}

	// 3-5. Продвигаем и сохраняем прогресс.
	next, pageEvent := s.tracker.Advance(current, *page, choiceID)
	if err := s.progress.SaveProgress(ctx, next); err != nil {
		log.Error("Failed to save progress", zap.Error(err))
		return nil, err
	}
	events = append(events, pageEvent)

	// 6-7.
	session, err := s.buildSession(ctx, *page, next)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events...)
	log.Info("Navigation completed",
		zap.Stringer("pageID", page.ID),
		zap.Int("pageNumber", page.PageNumber),
		zap.Bool("ending", page.IsEnding),
	)
	return session, nil
}

// acquireChoice делает выбор принадлежащим пользователю: либо находит уже
// оплаченную покупку в реестре, либо покупает через Purchaser.
// Возвращает прогресс с выбором в PurchasedChoices.
func (s *storyEngineImpl) acquireChoice(ctx context.Context, current *models.UserProgress, choice *models.Choice) (*models.UserProgress, *models.AnalyticsEvent, error) {
	log := s.logger.With(
		zap.Stringer("userID", current.UserID),
		zap.Stringer("choiceID", choice.ID),
		zap.Int64("cost", choice.Cost),
	)

	balance, err := s.balances.GetBalance(ctx, current.UserID)
	if err != nil {
		return nil, nil, err
	}

	if eval := evaluator.Evaluate(*choice, current, balance); !eval.Accessible {
		// Покупка могла пройти, а сохранение прогресса - нет. Реестр главнее.
		owned, err := s.ledger.HasPurchase(ctx, current.UserID, choice.ID)
		if err != nil {
			return nil, nil, err
		}
		if !owned {
			log.Info("Premium choice rejected: insufficient funds", zap.Int64("balance", balance))
			return nil, nil, models.ErrInsufficientFunds
		}
		log.Warn("Choice owned in ledger but missing from progress, restoring")
		next := current.Clone()
		next.PurchasedChoices.Add(choice.ID)
		return next, nil, nil
	}

	result, err := s.purchaser.PurchasePremiumChoice(ctx, current.UserID, current.StoryID, choice.ID, choice.Cost)
	switch {
	case err == nil:
		log.Info("Premium choice purchased", zap.Int64("newBalance", result.NewBalance))
	case errors.Is(err, models.ErrAlreadyPurchased):
		log.Info("Premium choice already owned, continuing without charge")
	default:
		return nil, nil, err
	}

	next, event := s.tracker.RecordPurchase(current, choice.ID)
	return next, &event, nil
}

func (s *storyEngineImpl) Restart(ctx context.Context, userID, storyID uuid.UUID) (*models.StorySession, error) {
	log := s.logger.With(zap.Stringer("userID", userID), zap.Stringer("storyID", storyID))

	firstID, err := s.graph.GetFirstPageID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	page, err := s.fetchStoryPage(ctx, storyID, firstID)
	if err != nil {
		return nil, err
	}

	current, err := s.loadProgress(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = models.NewUserProgress(userID, storyID)
	}

	owned, err := s.ledger.ListPurchasedChoiceIDs(ctx, userID, storyID)
	if err != nil {
		return nil, err
	}

	next, event := s.tracker.Reset(current, *page, models.NewIDSet(owned...))
	if err := s.progress.ResetProgress(ctx, next); err != nil {
		log.Error("Failed to reset progress", zap.Error(err))
		return nil, err
	}

	session, err := s.buildSession(ctx, *page, next)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, event)
	log.Info("Story restarted", zap.Int("ownedChoices", len(owned)))
	return session, nil
}

func (s *storyEngineImpl) GetProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.UserProgress, error) {
	return s.progress.GetProgress(ctx, userID, storyID)
}

func (s *storyEngineImpl) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.balances.GetBalance(ctx, userID)
}

func (s *storyEngineImpl) CreditBalance(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}
	balance, err := s.balances.Credit(ctx, userID, amount)
	if err != nil {
		s.logger.Error("Failed to credit balance", zap.Stringer("userID", userID), zap.Int64("amount", amount), zap.Error(err))
		return 0, err
	}
	return balance, nil
}

// loadProgress возвращает nil без ошибки, если пользователь еще не открывал историю.
func (s *storyEngineImpl) loadProgress(ctx context.Context, userID, storyID uuid.UUID) (*models.UserProgress, error) {
	current, err := s.progress.GetProgress(ctx, userID, storyID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	return current, err
}

func (s *storyEngineImpl) checkJump(ctx context.Context, current *models.UserProgress, storyID, pageID uuid.UUID) error {
	if current != nil && current.CompletedPages.Has(pageID) {
		return nil
	}
	firstID, err := s.graph.GetFirstPageID(ctx, storyID)
	if err != nil {
		return err
	}
	if pageID != firstID {
		return fmt.Errorf("%w: page %s", ErrPageNotReached, pageID)
	}
	return nil
}

func (s *storyEngineImpl) fetchStoryPage(ctx context.Context, storyID, pageID uuid.UUID) (*models.Page, error) {
	page, err := s.graph.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if page.StoryID != storyID {
		return nil, fmt.Errorf("%w: page %s", ErrForeignPage, pageID)
	}
	return page, nil
}

// buildSession собирает снимок сессии. Баланс читается после покупки,
// поэтому доступность остальных премиальных выборов учитывает списание.
func (s *storyEngineImpl) buildSession(ctx context.Context, page models.Page, state *models.UserProgress) (*models.StorySession, error) {
	var (
		balance int64
		meta    *models.StoryMetadata
		choices []models.Choice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		balance, err = s.balances.GetBalance(gctx, state.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		meta, err = s.graph.GetStoryMetadata(gctx, state.StoryID)
		return err
	})
	g.Go(func() error {
		var err error
		choices, err = s.graph.GetChoicesFromPage(gctx, page.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to assemble session", zap.Stringer("pageID", page.ID), zap.Error(err))
		return nil, err
	}

	return &models.StorySession{
		StoryID:          state.StoryID,
		CurrentPage:      page,
		AvailableChoices: evaluator.EvaluateAll(choices, state, balance),
		Progress:         state,
		Metadata:         *meta,
		Balance:          balance,
	}, nil
}

// emit отправляет события в sink. Ошибки доставки только логируются.
func (s *storyEngineImpl) emit(ctx context.Context, events ...models.AnalyticsEvent) {
	if s.sink == nil {
		return
	}
	for _, e := range events {
		if err := s.sink.Emit(ctx, e); err != nil {
			s.logger.Warn("Failed to emit analytics event",
				zap.String("type", string(e.Type)),
				zap.Stringer("userID", e.UserID),
				zap.Error(err),
			)
		}
	}
}
