package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// Policy holds the heuristic data the filtering and priority stages run on.
// These lists are policy, not logic: they can be swapped via a YAML file
// without touching the pipeline.
type Policy struct {
	// MaxPrice is the upper bound of the price-sanity check; prices above
	// it (or at/below zero) are treated as abnormal for this fund class
	MaxPrice float64 `yaml:"max_price"`

	// MinPrice is the price floor; NAV for these funds clusters near 1.0,
	// so far lower prices are likely data anomalies
	MinPrice float64 `yaml:"min_price"`

	// SkipKeywords marks bond/money-market fund names, which structurally
	// rarely trade at a premium
	SkipKeywords []string `yaml:"skip_keywords"`

	// SkipCodePrefixes marks money-market-style instruments misclassified
	// into the LOF universe
	SkipCodePrefixes []string `yaml:"skip_code_prefixes"`

	// PriorityKeywords marks fund categories historically prone to premiums
	PriorityKeywords []string `yaml:"priority_keywords"`
}

// DefaultPolicy returns the built-in heuristics for the CN LOF universe.
func DefaultPolicy() Policy {
	return Policy{
		MaxPrice: 100,
		MinPrice: 0.5,
		SkipKeywords: []string{
			"债券", "货币", "短债", "纯债", "中债", "国债",
			"信用债", "可转债", "企业债", "政府债", "同业存单",
		},
		SkipCodePrefixes: []string{"511"},
		PriorityKeywords: []string{
			"原油", "黄金", "商品", "海外", "港股", "美股", "QDII",
			"石油", "贵金属", "有色", "煤炭", "钢铁",
		},
	}
}

// LoadPolicy reads a Policy from a YAML file. Unset numeric bounds fall
// back to the defaults so a file can override just the keyword lists.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("reading %s: %w", path, err)
	}

	policy := DefaultPolicy()
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return policy, nil
}

// Validate checks the policy bounds are coherent.
func (p Policy) Validate() error {
	if p.MaxPrice <= 0 {
		return fmt.Errorf("policy max price must be positive, got %f", p.MaxPrice)
	}
	if p.MinPrice < 0 {
		return fmt.Errorf("policy min price must be >= 0, got %f", p.MinPrice)
	}
	if p.MinPrice >= p.MaxPrice {
		return fmt.Errorf("policy min price %f must be below max price %f", p.MinPrice, p.MaxPrice)
	}
	return nil
}
