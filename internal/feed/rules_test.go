package feed

import "testing"

func TestClassify(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name, desc   string
		wantCategory string
		wantIcon     string
	}{
		{"chat-llm", "Local chat UI", "ai", "🤖"},
		{"cicd-action", "Reusable deploy workflows", "dev", "🚀"},
		{"handbook", "Team notes and guides", "docs", "📚"},
		{"portfolio", "Personal website built with Vue", "web", "🌐"},
		{"dotfiles", "Shell scripts for a new laptop", "tools", "🛠️"},
		{"misc", "Nothing in particular", "github", "📦"},
		{"ai", "", "ai", "🤖"},
		{"go-airflow", "Airflow DAG helpers in Go", "github", "📦"},
		{"user-agent-parser", "Parse browser UA strings", "github", "📦"},
		{"my-agent", "", "ai", "🤖"},
		{"assistant", "Built on top of AI.", "ai", "🤖"},
		{"ai-gateway", "", "ai", "🤖"},
	}

	for _, tt := range tests {
		cat, icon := c.Classify(tt.name, tt.desc)
		if cat != tt.wantCategory || icon != tt.wantIcon {
			t.Errorf("Classify(%q, %q) = %s %s, want %s %s",
				tt.name, tt.desc, cat, icon, tt.wantCategory, tt.wantIcon)
		}
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	c := DefaultClassifier()

	// Matches web ("vue"), tools ("cli") and ai ("gpt"); ai comes first in the table.
	cat, _ := c.Classify("vue-cli-helper", "GPT prompts for Vue")
	if cat != "ai" {
		t.Errorf("Expected ai to win by rule order, got %s", cat)
	}

	// "docker" (dev) contains "doc" (docs); dev is earlier.
	cat, _ = c.Classify("images", "Docker images")
	if cat != "dev" {
		t.Errorf("Expected dev, got %s", cat)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := DefaultClassifier()

	cat, _ := c.Classify("BLOG-Engine", "")
	if cat != "docs" {
		t.Errorf("Expected docs, got %s", cat)
	}
}

func TestCustomClassifier(t *testing.T) {
	rules := []Rule{
		{Keywords: []string{"kube"}, CategoryID: "ops", Icon: "☸️"},
		{Keywords: []string{"kube", "helm"}, CategoryID: "charts", Icon: "⎈"},
	}
	c, err := NewClassifier(rules, Rule{CategoryID: "other", Icon: "?"})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	if cat, _ := c.Classify("kube-tools", ""); cat != "ops" {
		t.Errorf("Expected shared keyword to belong to first rule, got %s", cat)
	}
	if cat, _ := c.Classify("helm-charts", ""); cat != "charts" {
		t.Errorf("Expected charts, got %s", cat)
	}
	if cat, icon := c.Classify("nothing", ""); cat != "other" || icon != "?" {
		t.Errorf("Expected fallback, got %s %s", cat, icon)
	}
}

func TestEmptyClassifier(t *testing.T) {
	c, err := NewClassifier(nil, DefaultFallback)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	if cat, _ := c.Classify("llm", "gpt"); cat != "github" {
		t.Errorf("Expected fallback category, got %s", cat)
	}
}
