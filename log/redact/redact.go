// Package redact 在日志写出前遮蔽密钥等敏感内容
package redact

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Mask 替换敏感值的默认文本
const Mask = "******"

// Rule 脱敏规则
type Rule interface {
	Name() string
	Apply(s string) string
}

// Redactor 按注册顺序执行规则
type Redactor struct {
	mu    sync.RWMutex
	rules []Rule
}

// New 创建 Redactor
func New(rules ...Rule) *Redactor {
	r := &Redactor{}
	for _, rule := range rules {
		r.Add(rule)
	}
	return r
}

// Add 添加规则，同名规则会被替换
func (r *Redactor) Add(rule Rule) {
	if rule == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.rules {
		if existing.Name() == rule.Name() {
			r.rules[i] = rule
			return
		}
	}
	r.rules = append(r.rules, rule)
}

// Remove 删除规则
func (r *Redactor) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.rules {
		if existing.Name() == name {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Len 规则数量
func (r *Redactor) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}

// Apply 依次执行所有规则
func (r *Redactor) Apply(s string) string {
	if s == "" {
		return s
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rule := range r.rules {
		s = rule.Apply(s)
	}
	return s
}

// PatternRule 按正则替换内容
type PatternRule struct {
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewPatternRule 创建内容规则
func NewPatternRule(name, pattern, replacement string) (*PatternRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &PatternRule{name: name, pattern: re, replacement: replacement}, nil
}

func (r *PatternRule) Name() string { return r.name }

func (r *PatternRule) Apply(s string) string {
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// FieldRule 遮蔽 JSON 中指定字段的字符串值，字段名精确匹配
type FieldRule struct {
	name    string
	pattern *regexp.Regexp
}

// NewFieldRule 为一组字段创建规则
func NewFieldRule(name string, fields ...string) (*FieldRule, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("rule %q: no fields", name)
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	re, err := regexp.Compile(`"(` + strings.Join(quoted, "|") + `)"(\s*:\s*)"[^"]*"`)
	if err != nil {
		return nil, err
	}
	return &FieldRule{name: name, pattern: re}, nil
}

// MustFieldRule 用于内置规则
func MustFieldRule(name string, fields ...string) *FieldRule {
	r, err := NewFieldRule(name, fields...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *FieldRule) Name() string { return r.name }

func (r *FieldRule) Apply(s string) string {
	return r.pattern.ReplaceAllString(s, `"$1"$2"`+Mask+`"`)
}

// KeyMaterial 遮蔽会话中的密钥字段
var KeyMaterial = MustFieldRule("key-material",
	"key", "encryption_key", "decryption_key", "private_key", "k")
