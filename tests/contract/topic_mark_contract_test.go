package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/handler"
)

type stubAggregationService struct {
	list dto.TopicMarkListResponse
}

func (s stubAggregationService) ComputeFinal(context.Context, uint, uint) (dto.TopicMarkResponse, error) {
	return dto.TopicMarkResponse{}, nil
}

func (s stubAggregationService) GetMark(context.Context, uint, uint) (dto.TopicMarkResponse, error) {
	return dto.TopicMarkResponse{}, nil
}

func (s stubAggregationService) ListMarks(context.Context, uint) (dto.TopicMarkListResponse, error) {
	return s.list, nil
}

func TestTopicMarkListContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "topic_mark_list.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Date(2026, time.March, 12, 14, 0, 0, 0, time.UTC)
	svc := stubAggregationService{
		list: dto.TopicMarkListResponse{
			OfferingID: 1,
			CacheHit:   true,
			Marks: []dto.TopicMarkResponse{
				{OfferingID: 1, StudentID: 7, FinalScore: 80, IsPassed: true, LastComputedAt: now},
				{OfferingID: 1, StudentID: 8, FinalScore: 42.5, IsPassed: false, Comment: "resit scheduled", LastComputedAt: now},
			},
		},
	}

	markHandler := handler.NewTopicMarkHandler(svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "teacher")
		return c.Next()
	})
	markHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/offerings/1/marks", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}
