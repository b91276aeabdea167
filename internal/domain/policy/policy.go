package policy

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/samber/lo"

	"safety-vision/internal/domain/entity"
)

// Rule сопоставляет метку модели с категорией и стилем
type Rule struct {
	Label    string
	Category entity.Category
	Style    entity.RenderStyle
}

// Fallback категория и стиль для меток без правила
type Fallback struct {
	Category entity.Category
	Style    entity.RenderStyle
}

// Config таблица правил, из которой строится политика
type Config struct {
	Rules   []Rule
	Default *Fallback // nil: меток без правила быть не должно
}

// ValidationError политика не покрывает метки модели или содержит ошибки.
type ValidationError struct {
	Missing  []string // метки модели без правила и без Default
	Problems []string // дубликаты, пустые метки, неверные стили
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("no rule and no default for labels %q", e.Missing))
	}
	if len(e.Problems) > 0 {
		parts = append(parts, strings.Join(e.Problems, "; "))
	}
	return "policy validation: " + strings.Join(parts, "; ")
}

// neutralFallback стиль для меток вне проверенного набора
var neutralFallback = entity.Classification{
	Category: entity.CategoryNeutral,
	Style: entity.RenderStyle{
		Color:      color.RGBA{R: 128, G: 128, B: 128, A: 255},
		LabelColor: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Thickness:  2,
	},
}

// Policy неизменяемая таблица классификации. Строится один раз при старте.
type Policy struct {
	rules    map[string]entity.Classification
	fallback *entity.Classification
}

// New строит политику и проверяет, что каждая метка из knownLabels
// получает ровно одну категорию. Ошибка возвращается до обработки кадров.
func New(cfg Config, knownLabels []string) (*Policy, error) {
	verr := &ValidationError{}
	rules := make(map[string]entity.Classification, len(cfg.Rules))

	for i, r := range cfg.Rules {
		if strings.TrimSpace(r.Label) == "" {
			verr.Problems = append(verr.Problems, fmt.Sprintf("rule %d: empty label", i))
			continue
		}
		if _, dup := rules[r.Label]; dup {
			verr.Problems = append(verr.Problems, fmt.Sprintf("rule %d: duplicate label %q", i, r.Label))
			continue
		}
		if problem := checkStyle(r.Category, r.Style); problem != "" {
			verr.Problems = append(verr.Problems, fmt.Sprintf("rule %d (%s): %s", i, r.Label, problem))
			continue
		}
		rules[r.Label] = classification(r.Category, r.Style)
	}

	var fallback *entity.Classification
	if cfg.Default != nil {
		if problem := checkStyle(cfg.Default.Category, cfg.Default.Style); problem != "" {
			verr.Problems = append(verr.Problems, "default: "+problem)
		} else {
			c := classification(cfg.Default.Category, cfg.Default.Style)
			fallback = &c
		}
	}

	if cfg.Default == nil {
		missing := lo.Filter(lo.Uniq(knownLabels), func(l string, _ int) bool {
			_, ok := rules[l]
			return !ok
		})
		sort.Strings(missing)
		verr.Missing = missing
	}

	if len(verr.Missing) > 0 || len(verr.Problems) > 0 {
		return nil, verr
	}

	return &Policy{rules: rules, fallback: fallback}, nil
}

// Classify возвращает категорию и стиль для метки.
// Порядок: правило, затем Default, затем встроенный нейтральный серый стиль
// для меток, которых нет в таблице модели.
func (p *Policy) Classify(label string) entity.Classification {
	if c, ok := p.rules[label]; ok {
		return c
	}
	if p.fallback != nil {
		return *p.fallback
	}
	return neutralFallback
}

// Labels возвращает метки, для которых есть правило
func (p *Policy) Labels() []string {
	labels := lo.Keys(p.rules)
	sort.Strings(labels)
	return labels
}

func classification(c entity.Category, s entity.RenderStyle) entity.Classification {
	return entity.Classification{Category: c, Style: s, Alert: c.Alert()}
}

func checkStyle(c entity.Category, s entity.RenderStyle) string {
	if !c.Valid() {
		return fmt.Sprintf("unknown category %d", int(c))
	}
	if s.Thickness < 1 {
		return fmt.Sprintf("thickness %d, want >= 1", s.Thickness)
	}
	return ""
}
