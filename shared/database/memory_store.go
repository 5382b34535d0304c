package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
)

var (
	_ interfaces.GraphStore         = (*MemoryStore)(nil)
	_ interfaces.GraphWriter        = (*MemoryStore)(nil)
	_ interfaces.BalanceProvider    = (*MemoryStore)(nil)
	_ interfaces.ProgressRepository = (*MemoryStore)(nil)
	_ interfaces.PurchaseLedger     = (*MemoryStore)(nil)
)

type progressKey struct {
	userID  uuid.UUID
	storyID uuid.UUID
}

type purchaseKey struct {
	userID   uuid.UUID
	choiceID uuid.UUID
}

// MemoryStore - реализация всех хранилищ в памяти процесса.
// Используется в тестах и при STORAGE_DRIVER=memory.
// Транзакции реестра покупок блокируют баланс пользователя до завершения
// и применяют изменения только при успешном коммите.
type MemoryStore struct {
	mu sync.RWMutex

	stories       map[uuid.UUID]models.StoryMetadata
	pages         map[uuid.UUID]models.Page
	choices       map[uuid.UUID]models.Choice
	choicesByPage map[uuid.UUID][]uuid.UUID
	firstPages    map[uuid.UUID]uuid.UUID

	progress  map[progressKey]*models.UserProgress
	balances  map[uuid.UUID]int64
	purchases map[purchaseKey]models.Purchase
	history   []models.UserChoiceHistory

	locksMu   sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stories:       make(map[uuid.UUID]models.StoryMetadata),
		pages:         make(map[uuid.UUID]models.Page),
		choices:       make(map[uuid.UUID]models.Choice),
		choicesByPage: make(map[uuid.UUID][]uuid.UUID),
		firstPages:    make(map[uuid.UUID]uuid.UUID),
		progress:      make(map[progressKey]*models.UserProgress),
		balances:      make(map[uuid.UUID]int64),
		purchases:     make(map[purchaseKey]models.Purchase),
		userLocks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *MemoryStore) userLock(userID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.userLocks[userID] = l
	}
	return l
}

// --- GraphWriter ---

// SaveStoryGraph заменяет граф истории целиком. Первой страницей считается
// страница с минимальным PageNumber.
func (s *MemoryStore) SaveStoryGraph(_ context.Context, story models.StoryMetadata, pages []models.Page, choices []models.Choice) error {
	if len(pages) == 0 {
		return fmt.Errorf("story %s has no pages", story.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now().UTC()
	}
	if story.TotalPages == 0 {
		story.TotalPages = len(pages)
	}
	s.stories[story.ID] = story

	first := pages[0]
	for _, p := range pages {
		p.StoryID = story.ID
		s.pages[p.ID] = p
		delete(s.choicesByPage, p.ID)
		if p.PageNumber < first.PageNumber {
			first = p
		}
	}
	s.firstPages[story.ID] = first.ID

	sorted := make([]models.Choice, len(choices))
	copy(sorted, choices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DisplayOrder < sorted[j].DisplayOrder })
	for _, c := range sorted {
		s.choices[c.ID] = c
		s.choicesByPage[c.FromPageID] = append(s.choicesByPage[c.FromPageID], c.ID)
	}
	return nil
}

// --- GraphStore ---

func (s *MemoryStore) GetPage(_ context.Context, pageID uuid.UUID) (*models.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pages[pageID]
	if !ok {
		return nil, models.ErrPageNotFound
	}
	return &p, nil
}

func (s *MemoryStore) GetChoice(_ context.Context, choiceID uuid.UUID) (*models.Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.choices[choiceID]
	if !ok {
		return nil, models.ErrInvalidChoice
	}
	return &c, nil
}

func (s *MemoryStore) GetChoicesFromPage(_ context.Context, pageID uuid.UUID) ([]models.Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.choicesByPage[pageID]
	out := make([]models.Choice, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.choices[id])
	}
	return out, nil
}

func (s *MemoryStore) GetFirstPageID(_ context.Context, storyID uuid.UUID) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.firstPages[storyID]
	if !ok {
		return uuid.Nil, models.ErrStoryNotFound
	}
	return id, nil
}

func (s *MemoryStore) GetStoryMetadata(_ context.Context, storyID uuid.UUID) (*models.StoryMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.stories[storyID]
	if !ok {
		return nil, models.ErrStoryNotFound
	}
	return &m, nil
}

// --- BalanceProvider ---

func (s *MemoryStore) GetBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[userID], nil
}

// Credit ждет завершения текущей транзакции покупки этого пользователя.
func (s *MemoryStore) Credit(_ context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, models.ErrInvalidAmount
	}
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] += amount
	return s.balances[userID], nil
}

// --- ProgressRepository ---

func (s *MemoryStore) GetProgress(_ context.Context, userID, storyID uuid.UUID) (*models.UserProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[progressKey{userID, storyID}]
	if !ok {
		return nil, models.ErrProgressNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) SaveProgress(_ context.Context, progress *models.UserProgress) error {
	if progress == nil {
		return fmt.Errorf("%w: nil progress", models.ErrBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := progressKey{progress.UserID, progress.StoryID}
	next := progress.Clone()
	if stored, ok := s.progress[key]; ok {
		next.CompletedPages = stored.CompletedPages.Union(next.CompletedPages)
		next.PurchasedChoices = stored.PurchasedChoices.Union(next.PurchasedChoices)
	}
	s.progress[key] = next
	return nil
}

func (s *MemoryStore) ResetProgress(_ context.Context, progress *models.UserProgress) error {
	if progress == nil {
		return fmt.Errorf("%w: nil progress", models.ErrBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[progressKey{progress.UserID, progress.StoryID}] = progress.Clone()
	return nil
}

// --- PurchaseLedger ---

func (s *MemoryStore) HasPurchase(_ context.Context, userID, choiceID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.purchases[purchaseKey{userID, choiceID}]
	return ok, nil
}

func (s *MemoryStore) ListPurchasedChoiceIDs(_ context.Context, userID, storyID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := models.NewIDSet()
	for key, p := range s.purchases {
		if key.userID == userID && p.StoryID == storyID {
			set.Add(key.choiceID)
		}
	}
	return set.Slice(), nil
}

// ChoiceHistory возвращает копию истории выборов пользователя.
func (s *MemoryStore) ChoiceHistory(userID uuid.UUID) []models.UserChoiceHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.UserChoiceHistory
	for _, h := range s.history {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out
}

func (s *MemoryStore) WithLedgerTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.LedgerTx) error) error {
	tx := &memoryLedgerTx{
		store:     s,
		locked:    make(map[uuid.UUID]*sync.Mutex),
		deducted:  make(map[uuid.UUID]int64),
		purchases: make(map[purchaseKey]models.Purchase),
	}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	// Отмененный контекст до коммита равносилен откату.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ledger tx aborted: %w", err)
	}
	tx.commit()
	return nil
}

type memoryLedgerTx struct {
	store *MemoryStore

	locked    map[uuid.UUID]*sync.Mutex
	deducted  map[uuid.UUID]int64
	purchases map[purchaseKey]models.Purchase
	history   []models.UserChoiceHistory
}

func (tx *memoryLedgerTx) LockBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if _, ok := tx.locked[userID]; !ok {
		l := tx.store.userLock(userID)
		l.Lock()
		tx.locked[userID] = l
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return tx.balance(userID), nil
}

func (tx *memoryLedgerTx) balance(userID uuid.UUID) int64 {
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	return tx.store.balances[userID] - tx.deducted[userID]
}

func (tx *memoryLedgerTx) PurchaseExists(_ context.Context, userID, choiceID uuid.UUID) (bool, error) {
	key := purchaseKey{userID, choiceID}
	if _, ok := tx.purchases[key]; ok {
		return true, nil
	}
	tx.store.mu.RLock()
	defer tx.store.mu.RUnlock()
	_, ok := tx.store.purchases[key]
	return ok, nil
}

func (tx *memoryLedgerTx) DeductBalance(_ context.Context, userID uuid.UUID, amount int64) (int64, error) {
	if _, ok := tx.locked[userID]; !ok {
		return 0, fmt.Errorf("balance of user %s is not locked", userID)
	}
	current := tx.balance(userID)
	if current < amount {
		return 0, models.ErrInsufficientFunds
	}
	tx.deducted[userID] += amount
	return current - amount, nil
}

func (tx *memoryLedgerTx) InsertPurchase(ctx context.Context, purchase *models.Purchase) error {
	exists, err := tx.PurchaseExists(ctx, purchase.UserID, purchase.ChoiceID)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrAlreadyPurchased
	}
	tx.purchases[purchaseKey{purchase.UserID, purchase.ChoiceID}] = *purchase
	return nil
}

func (tx *memoryLedgerTx) InsertChoiceHistory(_ context.Context, entry *models.UserChoiceHistory) error {
	tx.history = append(tx.history, *entry)
	return nil
}

func (tx *memoryLedgerTx) commit() {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for userID, amount := range tx.deducted {
		tx.store.balances[userID] -= amount
	}
	for key, p := range tx.purchases {
		tx.store.purchases[key] = p
	}
	tx.store.history = append(tx.store.history, tx.history...)
}

func (tx *memoryLedgerTx) release() {
	for _, l := range tx.locked {
		l.Unlock()
	}
}
