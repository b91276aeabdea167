package policyfile

import (
	_ "embed"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"safety-vision/internal/domain/entity"
	"safety-vision/internal/domain/policy"
)

const defaultThickness = 3

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

//go:embed ppe.yaml
var ppeYAML []byte

type styleDoc struct {
	Category   string `yaml:"category"`
	Color      string `yaml:"color"`
	LabelColor string `yaml:"label_color"`
	Thickness  int    `yaml:"thickness"`
}

type ruleDoc struct {
	Label    string `yaml:"label"`
	styleDoc `yaml:",inline"`
}

type fileDoc struct {
	Default *styleDoc `yaml:"default"`
	Rules   []ruleDoc `yaml:"rules"`
}

// Load читает файл правил
func Load(path string) (policy.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return policy.Config{}, fmt.Errorf("read policy file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return policy.Config{}, fmt.Errorf("policy file %s: %w", path, err)
	}
	return cfg, nil
}

// Default возвращает встроенные правила СИЗ
func Default() (policy.Config, error) {
	return Parse(ppeYAML)
}

// Parse разбирает YAML с правилами. Полнота покрытия меток модели
// проверяется позже, в policy.New.
func Parse(data []byte) (policy.Config, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return policy.Config{}, fmt.Errorf("parse yaml: %w", err)
	}

	var cfg policy.Config
	for i, r := range doc.Rules {
		category, style, err := r.styleDoc.convert()
		if err != nil {
			return policy.Config{}, fmt.Errorf("rule %d (%s): %w", i, r.Label, err)
		}
		cfg.Rules = append(cfg.Rules, policy.Rule{Label: r.Label, Category: category, Style: style})
	}

	if doc.Default != nil {
		category, style, err := doc.Default.convert()
		if err != nil {
			return policy.Config{}, fmt.Errorf("default: %w", err)
		}
		cfg.Default = &policy.Fallback{Category: category, Style: style}
	}

	return cfg, nil
}

func (s styleDoc) convert() (entity.Category, entity.RenderStyle, error) {
	category, err := entity.ParseCategory(s.Category)
	if err != nil {
		return 0, entity.RenderStyle{}, err
	}

	box, err := parseHexColor(s.Color)
	if err != nil {
		return 0, entity.RenderStyle{}, fmt.Errorf("color: %w", err)
	}

	label := white
	if s.LabelColor != "" {
		if label, err = parseHexColor(s.LabelColor); err != nil {
			return 0, entity.RenderStyle{}, fmt.Errorf("label_color: %w", err)
		}
	}

	thickness := s.Thickness
	if thickness == 0 {
		thickness = defaultThickness
	}

	return category, entity.RenderStyle{Color: box, LabelColor: label, Thickness: thickness}, nil
}

// parseHexColor разбирает цвет вида #rrggbb
func parseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(rgb >> 16),
		G: uint8(rgb >> 8),
		B: uint8(rgb),
		A: 255,
	}, nil
}
