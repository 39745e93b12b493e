package integration

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"publo-orchestrator/internal/bootstrap"
	"publo-orchestrator/internal/config"
	"publo-orchestrator/internal/dto"
	"publo-orchestrator/internal/pkg/serverutils"
	"publo-orchestrator/internal/server"
	"publo-orchestrator/pkg/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

// TestOrchestratorAPI boots the full container against a real database and
// exercises the HTTP surface end to end. Every scenario here resolves in the
// pattern stage, so no LLM provider is ever called.
func TestOrchestratorAPI(t *testing.T) {
	// Load .env from root (2 levels up) because tests run in package dir
	if err := godotenv.Load("../../.env"); err != nil {
		t.Logf("Warning: Could not load ../../.env: %v", err)
	}
	if os.Getenv("DB_CONNECTION_STRING") == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	// The override routes the provider factory to ollama, so the container
	// builds without API keys. Nothing below ever reaches the provider.
	t.Setenv("LLM_MODEL_OVERRIDE", "llama3")
	if os.Getenv("JWT_SECRET") == "" {
		t.Setenv("JWT_SECRET", "integration-test-secret")
	}

	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	container := bootstrap.NewContainer(db, cfg)
	srv := server.New(cfg, container)
	app := srv.GetApp()

	userId := uuid.New()
	token := signTestToken(t, userId)

	defer func() {
		// Cleanup
		db.Exec("DELETE FROM orchestrator_messages WHERE session_id IN (SELECT id FROM orchestrator_sessions WHERE user_id = ?)", userId)
		db.Exec("DELETE FROM orchestrator_sessions WHERE user_id = ?", userId)
	}()

	t.Run("Root reports service identity", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)

		assert.Equal(t, "running", result["status"])
		assert.Equal(t, "publo-orchestrator", result["service"])
	})

	t.Run("Liveness probe", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result dto.HealthResponse
		json.NewDecoder(resp.Body).Decode(&result)

		assert.Equal(t, "healthy", result.Status)
	})

	t.Run("Readiness probe passes with DB and model override", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health/ready", nil)

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result dto.ReadinessResponse
		json.NewDecoder(resp.Body).Decode(&result)

		assert.Equal(t, "ready", result.Status)
		assert.True(t, result.Checks["database"])
		assert.True(t, result.Checks["llm_provider"])
	})

	t.Run("Classify resolves question in pattern stage", func(t *testing.T) {
		reqBody := dto.IntentRequest{
			Message: "What is a plot twist?",
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/intent/classify", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result dto.ClassifyResponse
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Matched)
		if assert.NotNil(t, result.Analysis) {
			assert.Equal(t, "answer_question", result.Analysis.Intent)
			assert.False(t, result.Analysis.UsedLLM)
		}
	})

	t.Run("Orchestrate rejects missing message", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/orchestrator/orchestrate", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 400, resp.StatusCode)

		var result serverutils.Response[any]
		json.NewDecoder(resp.Body).Decode(&result)

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "Validation failed")
	})

	t.Run("Orchestrate navigation resolves without provider", func(t *testing.T) {
		reqBody := dto.OrchestrateRequest{
			Message:           "go to chapter three",
			UserId:            userId,
			DocumentPanelOpen: true,
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/orchestrator/orchestrate", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result dto.OrchestrateResponse
		json.NewDecoder(resp.Body).Decode(&result)

		assert.True(t, result.Success)
		assert.Equal(t, "navigate_section", result.Intent)
		assert.Equal(t, "sequential", result.Strategy)
		if assert.Len(t, result.Actions, 1) {
			assert.Equal(t, "select_section", result.Actions[0].Type)
		}
		assert.Empty(t, result.Results)
		assert.Nil(t, result.CriticApproved)
	})

	t.Run("Execute rejects unknown action type", func(t *testing.T) {
		reqBody := dto.ExecuteActionRequest{
			Action: dto.ActionDTO{Type: "teleport"},
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/orchestrator/actions/execute", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var result dto.ExecuteActionResponse
		json.NewDecoder(resp.Body).Decode(&result)

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "Unknown action type: teleport")
	})

	t.Run("Session endpoints require JWT", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/orchestrator/sessions/active", nil)

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("Session lifecycle", func(t *testing.T) {
		// Create
		reqBody := dto.CreateOrchestratorSessionRequest{
			UserId:   userId,
			Metadata: map[string]interface{}{"source": "api-test"},
		}
		body, _ := json.Marshal(reqBody)

		req := httptest.NewRequest("POST", "/api/orchestrator/sessions", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ := app.Test(req, -1)

		assert.Equal(t, 201, resp.StatusCode)

		var created dto.OrchestratorSessionResponse
		json.NewDecoder(resp.Body).Decode(&created)

		assert.Equal(t, userId, created.UserId)
		assert.True(t, created.IsActive)

		// Active lookup via explicit user_id (gateway path)
		req = httptest.NewRequest("GET", "/api/orchestrator/sessions/active?user_id="+userId.String(), nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ = app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var active dto.OrchestratorSessionResponse
		json.NewDecoder(resp.Body).Decode(&active)

		assert.Equal(t, created.Id, active.Id)

		// Append a message
		msgBody, _ := json.Marshal(dto.AddOrchestratorMessageRequest{
			SessionId: created.Id,
			Role:      "user",
			Content:   "What happens in act two?",
		})

		req = httptest.NewRequest("POST", "/api/orchestrator/messages", strings.NewReader(string(msgBody)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ = app.Test(req, -1)

		assert.Equal(t, 201, resp.StatusCode)

		// Read it back
		req = httptest.NewRequest("GET", "/api/orchestrator/sessions/"+created.Id.String()+"/messages", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ = app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var messages []dto.OrchestratorMessageResponse
		json.NewDecoder(resp.Body).Decode(&messages)

		if assert.Len(t, messages, 1) {
			assert.Equal(t, "user", messages[0].Role)
			assert.Equal(t, "What happens in act two?", messages[0].Content)
		}

		// Listing goes through the shared envelope
		req = httptest.NewRequest("GET", "/api/orchestrator/sessions", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ = app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var listed serverutils.Response[[]dto.OrchestratorSessionResponse]
		json.NewDecoder(resp.Body).Decode(&listed)

		assert.True(t, listed.Success)
		assert.NotEmpty(t, listed.Data)

		// Close
		req = httptest.NewRequest("DELETE", "/api/orchestrator/sessions/"+created.Id.String(), nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ = app.Test(req, -1)

		assert.Equal(t, 200, resp.StatusCode)

		var closed dto.DeleteOrchestratorSessionResponse
		json.NewDecoder(resp.Body).Decode(&closed)

		assert.Equal(t, "success", closed.Status)
		assert.Equal(t, created.Id, closed.SessionId)

		// No active session remains
		req = httptest.NewRequest("GET", "/api/orchestrator/sessions/active?user_id="+userId.String(), nil)
		req.Header.Set("Authorization", "Bearer "+token)

		resp, _ = app.Test(req, -1)

		assert.Equal(t, 404, resp.StatusCode)
	})
}

func signTestToken(t *testing.T, userId uuid.UUID) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}
