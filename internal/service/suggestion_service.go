package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"course_ai_backend/internal/config"
	"course_ai_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const suggestionSystemPrompt = "You are an expert curriculum designer. " +
	"You propose realistic, well-scoped course outlines for the requested audience."

// SuggestionInput 课程建议请求
type SuggestionInput struct {
	Subject    string `json:"subject" binding:"required,min=3"`
	Audience   string `json:"audience" binding:"required,min=3"`
	Level      string `json:"level"`
	Goals      string `json:"goals"`
	VerifiedBy string `json:"verifiedBy"`
	Lang       string `json:"language"`
}

// CourseSuggestion 单条课程建议大纲
type CourseSuggestion struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	TargetAudience string   `json:"targetAudience"`
	KeyTopics      []string `json:"keyTopics"`
	DurationWeeks  int      `json:"durationWeeks"`
	Difficulty     string   `json:"difficulty"`
	Prerequisites  []string `json:"prerequisites"`
	VerifiedBy     string   `json:"verifiedBy"`
}

type suggestionEnvelope struct {
	Suggestions []CourseSuggestion `json:"suggestions"`
}

type jsonGenerator interface {
	GenerateJSON(ctx context.Context, system, prompt, schemaName string, schema map[string]interface{}, out interface{}) error
	Chat(ctx context.Context, system, prompt string) (string, error)
}

type SuggestionService struct {
	ai       jsonGenerator
	redis    *redis.Client
	cacheTTL time.Duration
}

func NewSuggestionService(ai jsonGenerator, rdb *redis.Client, cfg config.AIConfig) *SuggestionService {
	return &SuggestionService{
		ai:       ai,
		redis:    rdb,
		cacheTTL: cfg.SuggestCacheTTL,
	}
}

var suggestionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"suggestions": map[string]interface{}{
			"type":     "array",
			"minItems": 3,
			"maxItems": 5,
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title":          map[string]interface{}{"type": "string"},
					"description":    map[string]interface{}{"type": "string"},
					"targetAudience": map[string]interface{}{"type": "string"},
					"keyTopics": map[string]interface{}{
						"type":     "array",
						"items":    map[string]interface{}{"type": "string"},
						"minItems": 5,
						"maxItems": 8,
					},
					"durationWeeks": map[string]interface{}{
						"type":    "integer",
						"minimum": 1,
						"maximum": 12,
					},
					"difficulty": map[string]interface{}{
						"type": "string",
						"enum": []string{"beginner", "intermediate", "advanced"},
					},
					"prerequisites": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
					"verifiedBy": map[string]interface{}{"type": "string"},
				},
				"required": []string{
					"title", "description", "targetAudience", "keyTopics",
					"durationWeeks", "difficulty", "prerequisites", "verifiedBy",
				},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"suggestions"},
	"additionalProperties": false,
}

// GenerateSuggestions 按主题/受众产出 3-5 条课程大纲建议
func (s *SuggestionService) GenerateSuggestions(ctx context.Context, in SuggestionInput) ([]CourseSuggestion, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate 3 to 5 course suggestions for the subject \"%s\" aimed at \"%s\".\n", in.Subject, in.Audience)
	if in.Level != "" {
		fmt.Fprintf(&b, "Preferred difficulty level: %s.\n", in.Level)
	}
	if in.Goals != "" {
		fmt.Fprintf(&b, "Learner goals to keep in mind: %s.\n", in.Goals)
	}
	if in.VerifiedBy != "" {
		fmt.Fprintf(&b, "Each suggestion must be verifiable against %s.\n", in.VerifiedBy)
	} else {
		b.WriteString("Pick a credible verification source for each suggestion.\n")
	}
	if in.Lang != "" {
		fmt.Fprintf(&b, "Respond in %s.\n", in.Lang)
	}
	b.WriteString("Each suggestion needs 5-8 key topics, a realistic duration in weeks, and honest prerequisites.")

	var env suggestionEnvelope
	if err := s.ai.GenerateJSON(ctx, suggestionSystemPrompt, b.String(), "course_suggestions", suggestionSchema, &env); err != nil {
		return nil, err
	}
	if len(env.Suggestions) == 0 {
		return nil, fmt.Errorf("model returned no suggestions")
	}
	return env.Suggestions, nil
}

const (
	autocompletePrefix = "suggest:auto:"
	maxCompletions     = 5
)

var autocompleteFields = map[string]string{
	"subject":    "course subjects",
	"audience":   "target audiences",
	"verifiedBy": "certification or verification bodies",
}

// Autocomplete 为表单字段生成补全候选，同一 (field, query) 走 redis 缓存
func (s *SuggestionService) Autocomplete(ctx context.Context, field, query string) ([]string, error) {
	desc, ok := autocompleteFields[field]
	if !ok {
		return nil, fmt.Errorf("unsupported autocomplete field %q", field)
	}

	key := autocompleteCacheKey(field, query)
	if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
		var items []string
		if json.Unmarshal([]byte(cached), &items) == nil {
			return items, nil
		}
	}

	prompt := fmt.Sprintf(
		"Suggest up to %d %s completing the partial input %q. "+
			"Answer with a JSON array of strings and nothing else.",
		maxCompletions, desc, query,
	)
	raw, err := s.ai.Chat(ctx, "You autocomplete course creation form fields.", prompt)
	if err != nil {
		return nil, err
	}

	items := parseCompletions(raw)

	if payload, err := json.Marshal(items); err == nil {
		if err := s.redis.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
			logger.Log.Warn("failed to cache autocomplete result", zap.Error(err))
		}
	}
	return items, nil
}

func autocompleteCacheKey(field, query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return autocompletePrefix + field + ":" + hex.EncodeToString(sum[:])
}

var bracketedList = regexp.MustCompile(`\[([\s\S]*?)\]`)
var listDelimiter = regexp.MustCompile(`["']?\s*,\s*["']?`)

// parseCompletions 从模型输出中提取字符串列表，逐级降级：
// 严格 JSON → 提取中括号片段 → 按分隔符切 → 按行切
func parseCompletions(raw string) []string {
	raw = strings.TrimSpace(raw)

	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return normalizeCompletions(items)
	}

	if m := bracketedList.FindStringSubmatch(raw); m != nil {
		if err := json.Unmarshal([]byte("["+m[1]+"]"), &items); err == nil {
			return normalizeCompletions(items)
		}
		return normalizeCompletions(listDelimiter.Split(m[1], -1))
	}

	if strings.Contains(raw, ",") {
		return normalizeCompletions(listDelimiter.Split(raw, -1))
	}
	return normalizeCompletions(strings.Split(raw, "\n"))
}

func normalizeCompletions(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, maxCompletions)
	for _, item := range items {
		item = strings.Trim(strings.TrimSpace(item), `"'`+"`")
		item = strings.TrimPrefix(item, "- ")
		if item == "" {
			continue
		}
		lower := strings.ToLower(item)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, item)
		if len(out) == maxCompletions {
			break
		}
	}
	return out
}
