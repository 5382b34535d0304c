//go:build integration

package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"novel-reader/pkg/migration"
	"novel-reader/shared/database"
	"novel-reader/shared/interfaces"
	"novel-reader/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// PostgresSuite поднимает Postgres в контейнере, применяет встроенные миграции
// и загружает тестовую историю.
type PostgresSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool

	graph    interfaces.GraphStore
	progress interfaces.ProgressRepository
	balances interfaces.BalanceProvider
	ledger   interfaces.PurchaseLedger
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("reader-test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Minute),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)
	s.pool, err = pgxpool.New(ctx, connStr)
	s.Require().NoError(err)

	migrator := migration.NewMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS,
		MigrationsPath: database.MigrationsDir,
	}, s.pool)
	s.Require().NoError(migrator.Up())

	logger := zap.NewNop()
	graphRepo := database.NewPgStoryGraphRepository(s.pool, logger)
	s.graph = graphRepo
	s.progress = database.NewPgUserProgressRepository(s.pool, logger)
	s.balances = database.NewPgBalanceRepository(s.pool, logger)
	s.ledger = database.NewPgPurchaseLedger(s.pool, logger)

	fixtures, err := database.LoadGraphFixtures(database.SampleFixtures, "fixtures")
	s.Require().NoError(err)
	s.Require().NoError(database.SeedGraphs(ctx, graphRepo, fixtures))
}

func (s *PostgresSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		s.NoError(s.container.Terminate(context.Background()))
	}
}

func (s *PostgresSuite) TestGraphLookups() {
	ctx := context.Background()

	first, err := s.graph.GetFirstPageID(ctx, storyID)
	s.Require().NoError(err)
	s.Equal(page1, first)

	choices, err := s.graph.GetChoicesFromPage(ctx, page1)
	s.Require().NoError(err)
	s.Require().Len(choices, 2)
	s.Equal(choice1, choices[0].ID)
	s.Equal(choice2, choices[1].ID)
	s.Equal(int64(10), choices[1].Cost)

	ending, err := s.graph.GetChoicesFromPage(ctx, page4)
	s.Require().NoError(err)
	s.NotNil(ending)
	s.Empty(ending)

	_, err = s.graph.GetChoice(ctx, uuid.New())
	s.ErrorIs(err, models.ErrInvalidChoice)
	_, err = s.graph.GetStoryMetadata(ctx, uuid.New())
	s.ErrorIs(err, models.ErrStoryNotFound)
}

func (s *PostgresSuite) TestProgressUnionUpsert() {
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.progress.GetProgress(ctx, userID, storyID)
	s.ErrorIs(err, models.ErrProgressNotFound)

	a := models.NewUserProgress(userID, storyID)
	a.CurrentPageID = page1
	a.CompletedPages.Add(page1)
	a.PurchasedChoices.Add(choice2)
	a.LastReadAt = time.Now().UTC()
	s.Require().NoError(s.progress.SaveProgress(ctx, a))

	b := models.NewUserProgress(userID, storyID)
	b.CurrentPageID = page2
	b.CompletedPages.Add(page2)
	b.LastReadAt = time.Now().UTC()
	s.Require().NoError(s.progress.SaveProgress(ctx, b))

	got, err := s.progress.GetProgress(ctx, userID, storyID)
	s.Require().NoError(err)
	s.Equal(page2, got.CurrentPageID)
	s.Equal(models.NewIDSet(page1, page2), got.CompletedPages)
	s.True(got.HasPurchased(choice2))
}

func (s *PostgresSuite) TestLedgerConcurrentPurchaseChargesOnce() {
	ctx := context.Background()
	userID := uuid.New()
	_, err := s.balances.Credit(ctx, userID, 15)
	s.Require().NoError(err)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.ledger.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
				if _, err := tx.LockBalance(ctx, userID); err != nil {
					return err
				}
				exists, err := tx.PurchaseExists(ctx, userID, choice2)
				if err != nil {
					return err
				}
				if exists {
					return models.ErrAlreadyPurchased
				}
				return buy(ctx, tx, userID, choice2, 10)
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, models.ErrAlreadyPurchased)
	}
	s.Equal(1, succeeded)

	balance, err := s.balances.GetBalance(ctx, userID)
	s.Require().NoError(err)
	s.Equal(int64(5), balance)

	ids, err := s.ledger.ListPurchasedChoiceIDs(ctx, userID, storyID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{choice2}, ids)
}

func (s *PostgresSuite) TestLedgerRollback() {
	ctx := context.Background()
	userID := uuid.New()
	_, err := s.balances.Credit(ctx, userID, 20)
	s.Require().NoError(err)

	boom := errors.New("history insert failed")
	err = s.ledger.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		if err := buy(ctx, tx, userID, choice2, 10); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	balance, err := s.balances.GetBalance(ctx, userID)
	s.Require().NoError(err)
	s.Equal(int64(20), balance)
	owned, err := s.ledger.HasPurchase(ctx, userID, choice2)
	s.Require().NoError(err)
	s.False(owned)
}

func (s *PostgresSuite) TestDeductBelowZeroIsRejected() {
	ctx := context.Background()
	userID := uuid.New()

	err := s.ledger.WithLedgerTx(ctx, func(ctx context.Context, tx interfaces.LedgerTx) error {
		if _, err := tx.LockBalance(ctx, userID); err != nil {
			return err
		}
		_, err := tx.DeductBalance(ctx, userID, 1)
		return err
	})
	s.ErrorIs(err, models.ErrInsufficientFunds)
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}
