package models

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// IDSet - множество идентификаторов. Порядок вставки не важен, важен только факт членства.
type IDSet map[uuid.UUID]struct{}

// NewIDSet строит множество из среза, дубликаты схлопываются.
func NewIDSet(ids ...uuid.UUID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add добавляет id и сообщает, был ли он добавлен впервые.
func (s IDSet) Add(id uuid.UUID) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has проверяет членство. Безопасен для nil.
func (s IDSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Clone возвращает независимую копию (nil превращается в пустое множество).
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Union возвращает новое множество s ∪ other.
func (s IDSet) Union(other IDSet) IDSet {
	c := s.Clone()
	for id := range other {
		c[id] = struct{}{}
	}
	return c
}

// Slice возвращает отсортированный срез, чтобы ответы API были детерминированы.
func (s IDSet) Slice() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Strings - то же, что Slice, но в виде строк (для text[] колонок).
func (s IDSet) Strings() []string {
	ids := s.Slice()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// UserProgress - прогресс пользователя в рамках одной истории. Ключ: (UserID, StoryID).
// CompletedPages и PurchasedChoices только растут при обычной навигации.
type UserProgress struct {
	UserID           uuid.UUID `json:"user_id"`
	StoryID          uuid.UUID `json:"story_id"`
	CurrentPageID    uuid.UUID `json:"current_page_id"`
	CompletedPages   IDSet     `json:"completed_pages"`
	PurchasedChoices IDSet     `json:"purchased_choices"`
	LastReadAt       time.Time `json:"last_read_at"`
}

// NewUserProgress создает пустой прогресс (ленивая инициализация при первой навигации).
func NewUserProgress(userID, storyID uuid.UUID) *UserProgress {
	return &UserProgress{
		UserID:           userID,
		StoryID:          storyID,
		CompletedPages:   IDSet{},
		PurchasedChoices: IDSet{},
	}
}

// Clone возвращает глубокую копию прогресса.
func (p *UserProgress) Clone() *UserProgress {
	if p == nil {
		return nil
	}
	c := *p
	c.CompletedPages = p.CompletedPages.Clone()
	c.PurchasedChoices = p.PurchasedChoices.Clone()
	return &c
}

// HasPurchased сообщает, принадлежит ли выбор пользователю.
func (p *UserProgress) HasPurchased(choiceID uuid.UUID) bool {
	return p != nil && p.PurchasedChoices.Has(choiceID)
}
