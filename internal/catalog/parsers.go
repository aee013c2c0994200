package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nulzo/calx-web/pkg/api"
)

// ErrMissingEnvelope means the body parsed as JSON but lacked the list we read models from.
var ErrMissingEnvelope = errors.New("response has no model list")

const (
	openAIMaxModels     = 20
	openRouterMaxModels = 30
)

type idEntry struct {
	ID string `json:"id"`
}

type namedEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type dataEnvelope[T any] struct {
	Data *[]T `json:"data"`
}

func decodeData[T any](body []byte) ([]T, error) {
	var env dataEnvelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	if env.Data == nil {
		return nil, ErrMissingEnvelope
	}
	return *env.Data, nil
}

// parseOpenAI keeps chat models only, sorted by id and capped.
func parseOpenAI(body []byte) ([]api.Model, error) {
	entries, err := decodeData[idEntry](body)
	if err != nil {
		return nil, err
	}

	models := make([]api.Model, 0, len(entries))
	for _, m := range entries {
		if strings.Contains(m.ID, "gpt") || strings.Contains(m.ID, "o1") || strings.Contains(m.ID, "chatgpt") {
			models = append(models, api.Model{ID: m.ID, Name: m.ID})
		}
	}

	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	if len(models) > openAIMaxModels {
		models = models[:openAIMaxModels]
	}
	return models, nil
}

func parseAnthropic(body []byte) ([]api.Model, error) {
	entries, err := decodeData[namedEntry](body)
	if err != nil {
		return nil, err
	}

	models := make([]api.Model, 0, len(entries))
	for _, m := range entries {
		models = append(models, api.Model{ID: m.ID, Name: firstNonEmpty(m.DisplayName, m.ID)})
	}
	return models, nil
}

type geminiEnvelope struct {
	Models *[]struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"models"`
}

// parseGemini keeps gemini models and strips the "models/" resource prefix from ids.
func parseGemini(body []byte) ([]api.Model, error) {
	var env geminiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}
	if env.Models == nil {
		return nil, ErrMissingEnvelope
	}

	models := make([]api.Model, 0, len(*env.Models))
	for _, m := range *env.Models {
		if !strings.Contains(m.Name, "gemini") {
			continue
		}
		id := strings.TrimPrefix(m.Name, "models/")
		models = append(models, api.Model{ID: id, Name: firstNonEmpty(m.DisplayName, id)})
	}
	return models, nil
}

// parseIDs covers the plain OpenAI-compatible envelope, name = id.
func parseIDs(body []byte) ([]api.Model, error) {
	entries, err := decodeData[idEntry](body)
	if err != nil {
		return nil, err
	}

	models := make([]api.Model, 0, len(entries))
	for _, m := range entries {
		models = append(models, api.Model{ID: m.ID, Name: m.ID})
	}
	return models, nil
}

type perplexityEnvelope struct {
	Data   *[]idEntry `json:"data"`
	Models *[]string  `json:"models"`
}

// parsePerplexity accepts either the OpenAI style envelope or a bare list of names.
func parsePerplexity(body []byte) ([]api.Model, error) {
	var env perplexityEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}

	switch {
	case env.Data != nil:
		models := make([]api.Model, 0, len(*env.Data))
		for _, m := range *env.Data {
			models = append(models, api.Model{ID: m.ID, Name: m.ID})
		}
		return models, nil
	case env.Models != nil:
		models := make([]api.Model, 0, len(*env.Models))
		for _, id := range *env.Models {
			models = append(models, api.Model{ID: id, Name: id})
		}
		return models, nil
	}

	return []api.Model{}, nil
}

func parseOpenRouter(body []byte) ([]api.Model, error) {
	entries, err := decodeData[namedEntry](body)
	if err != nil {
		return nil, err
	}

	if len(entries) > openRouterMaxModels {
		entries = entries[:openRouterMaxModels]
	}

	models := make([]api.Model, 0, len(entries))
	for _, m := range entries {
		models = append(models, api.Model{ID: m.ID, Name: firstNonEmpty(m.Name, m.ID)})
	}
	return models, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
