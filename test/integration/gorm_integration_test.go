package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"publo-orchestrator/internal/entity"
	"publo-orchestrator/internal/repository/specification"
	"publo-orchestrator/internal/repository/unitofwork"
	"publo-orchestrator/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.OrchestratorSessionRepository())
	assert.NotNil(t, uow.OrchestratorMessageRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Session Repository", func(t *testing.T) {
		count, err := uow.OrchestratorSessionRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Session count: %d", count)
	})

	t.Run("Check Message Repository", func(t *testing.T) {
		count, err := uow.OrchestratorMessageRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Message count: %d", count)
	})

	t.Run("Transactional Session With Messages", func(t *testing.T) {
		ctx := context.Background()
		userId := uuid.New()

		err := uow.Begin(ctx)
		assert.NoError(t, err)
		defer uow.Rollback()

		session := &entity.OrchestratorSession{
			Id:       uuid.New(),
			UserId:   userId,
			IsActive: true,
			Metadata: map[string]interface{}{"source": "integration-test"},
		}
		err = uow.OrchestratorSessionRepository().Create(ctx, session)
		assert.NoError(t, err)

		messages := []*entity.OrchestratorMessage{
			{Id: uuid.New(), SessionId: session.Id, Role: "user", Content: "Write chapter one", Type: "message"},
			{Id: uuid.New(), SessionId: session.Id, Role: "orchestrator", Content: "Content generated", Type: "result"},
		}
		err = uow.OrchestratorMessageRepository().CreateBatch(ctx, messages)
		assert.NoError(t, err)

		// Uncommitted rows must be visible inside the transaction.
		found, err := uow.OrchestratorSessionRepository().FindOne(ctx,
			specification.ByUserID{UserID: userId},
			specification.ActiveOnly{},
		)
		assert.NoError(t, err)
		assert.NotNil(t, found)
		if found != nil {
			assert.Equal(t, "integration-test", found.Metadata["source"])
		}

		list, err := uow.OrchestratorMessageRepository().FindAll(ctx,
			specification.BySessionID{SessionID: session.Id},
			specification.OrderBy{Field: "created_at", Desc: false},
		)
		assert.NoError(t, err)
		assert.Len(t, list, 2)

		err = uow.Commit()
		assert.NoError(t, err)

		t.Log("Successfully created Session with Messages in Transaction")

		// Cleanup committed test rows
		assert.NoError(t, gormDB.Exec("DELETE FROM orchestrator_messages WHERE session_id = ?", session.Id).Error)
		assert.NoError(t, gormDB.Exec("DELETE FROM orchestrator_sessions WHERE id = ?", session.Id).Error)
	})
}
