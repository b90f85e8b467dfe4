package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const maxRankingResponse = 8 << 20

// Ranker ranks recipes by how well they use a set of ingredients.
type Ranker interface {
	Rank(ctx context.Context, ingredients []string) ([]Recipe, error)
}

// RankingClient is the HTTP implementation of Ranker.
type RankingClient struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewRankingClient creates a client posting to baseURL + "/rank".
func NewRankingClient(baseURL string, timeout time.Duration, logger *slog.Logger) *RankingClient {
	return &RankingClient{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/rank",
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("system", "ranking"),
	}
}

// Rank returns recipes in the service's order. Rows that fail validation are
// dropped and logged. An empty ingredient set returns no recipes without
// calling the service.
func (c *RankingClient) Rank(ctx context.Context, ingredients []string) ([]Recipe, error) {
	if len(ingredients) == 0 {
		return []Recipe{}, nil
	}

	payload, err := json.Marshal(map[string][]string{"ingredients": ingredients})
	if err != nil {
		return nil, fmt.Errorf("encode ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankingUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankingUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: service returned %d: %s",
			ErrRankingUnavailable, res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var body struct {
		Recipes []json.RawMessage `json:"recipes"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, maxRankingResponse)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRankingUnavailable, err)
	}

	out := make([]Recipe, 0, len(body.Recipes))
	for i, raw := range body.Recipes {
		r, err := decodeRow(raw)
		if err != nil {
			c.logger.Warn("dropping ranking row", "row", i, "error", err)
			continue
		}
		out = append(out, r)
	}

	c.logger.Info("ranking complete", "ingredients", len(ingredients), "recipes", len(out))
	return out, nil
}

func decodeRow(raw json.RawMessage) (Recipe, error) {
	var r Recipe
	if err := json.Unmarshal(raw, &r); err != nil {
		return Recipe{}, errors.Join(ErrInvalidRecipe, err)
	}
	if g, err := ParseGrade(string(r.Grade)); err == nil {
		r.Grade = g
	}
	if err := r.validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}
