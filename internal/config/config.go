package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"frame-pipeline/internal/llm"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrNoProvider is returned by Validate when classification has no model to call.
var ErrNoProvider = errors.New("no LLM provider configured")

// Config holds application configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`

	// Multiple providers configuration, tried in order
	Providers               []llm.ProviderConfig `yaml:"providers"`
	MaxFailuresBeforeSwitch int                  `yaml:"max_failures_before_switch"`

	Classifier ClassifierConfig `yaml:"classifier"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Reddit     RedditConfig     `yaml:"reddit"`
	Crawl      CrawlConfig      `yaml:"crawl"`
	Prepare    PrepareConfig    `yaml:"prepare"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"` // optional, in addition to stderr
}

// ClassifierConfig controls prompt rendering and response checking.
type ClassifierConfig struct {
	PromptTemplate string `yaml:"prompt_template"` // path to a text/template file
	MinTextLength  int    `yaml:"min_text_length"`
	StrictFrames   bool   `yaml:"strict_frames"`
}

// PipelineConfig holds the classify stage paths and pacing.
type PipelineConfig struct {
	Input    string        `yaml:"input"`
	Output   string        `yaml:"output"`
	Interval time.Duration `yaml:"interval"`
	Progress bool          `yaml:"progress"`
}

// RedditConfig holds script-app credentials. Empty credentials fall back to
// the public, unauthenticated endpoints.
type RedditConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	UserAgent    string `yaml:"user_agent"`
	BaseURL      string `yaml:"base_url"`
	TokenURL     string `yaml:"token_url"`
}

// CrawlConfig describes what the crawl stage collects.
type CrawlConfig struct {
	Keywords          []string            `yaml:"keywords"`
	Subreddits        map[string][]string `yaml:"subreddits"` // category -> subreddits
	PostsLimit        int                 `yaml:"posts_limit"`
	CommentsLimit     int                 `yaml:"comments_limit"`
	CommentPosts      int                 `yaml:"comment_posts"`
	TimeFilter        string              `yaml:"time_filter"`
	RequestInterval   time.Duration       `yaml:"request_interval"`
	SubredditInterval time.Duration       `yaml:"subreddit_interval"`
	OutputDir         string              `yaml:"output_dir"`
}

// PrepareConfig holds the prepare stage paths.
type PrepareConfig struct {
	Posts    string `yaml:"posts"`
	Comments string `yaml:"comments"`
	Output   string `yaml:"output"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.expandEnv()
	config.applyEnvOverrides()
	config.setDefaults()

	return config, nil
}

// Default returns a configuration built only from defaults and the environment.
func Default() *Config {
	_ = godotenv.Load()

	config := &Config{}
	config.applyEnvOverrides()
	config.setDefaults()
	return config
}

func (c *Config) expandEnv() {
	// Expand environment variables in secrets
	for i := range c.Providers {
		c.Providers[i].APIKey = os.ExpandEnv(c.Providers[i].APIKey)
	}
	c.Reddit.ClientID = os.ExpandEnv(c.Reddit.ClientID)
	c.Reddit.ClientSecret = os.ExpandEnv(c.Reddit.ClientSecret)
	c.Reddit.Username = os.ExpandEnv(c.Reddit.Username)
	c.Reddit.Password = os.ExpandEnv(c.Reddit.Password)
}

func (c *Config) applyEnvOverrides() {
	if len(c.Providers) == 0 {
		if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			c.Providers = append(c.Providers, llm.ProviderConfig{Type: llm.ProviderGemini, APIKey: key})
		}
		if key := os.Getenv("GROQ_API_KEY"); key != "" {
			c.Providers = append(c.Providers, llm.ProviderConfig{Type: llm.ProviderGroq, APIKey: key})
		}
		if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
			c.Providers = append(c.Providers, llm.ProviderConfig{Type: llm.ProviderOpenRouter, APIKey: key})
		}
	}

	setIfEmpty(&c.Reddit.ClientID, os.Getenv("REDDIT_CLIENT_ID"))
	setIfEmpty(&c.Reddit.ClientSecret, os.Getenv("REDDIT_CLIENT_SECRET"))
	setIfEmpty(&c.Reddit.Username, os.Getenv("REDDIT_USERNAME"))
	setIfEmpty(&c.Reddit.Password, os.Getenv("REDDIT_PASSWORD"))
	setIfEmpty(&c.Reddit.UserAgent, os.Getenv("REDDIT_USER_AGENT"))
}

func (c *Config) setDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.MaxFailuresBeforeSwitch == 0 {
		c.MaxFailuresBeforeSwitch = 3
	}

	if c.Classifier.MinTextLength == 0 {
		c.Classifier.MinTextLength = 10
	}

	if c.Pipeline.Input == "" {
		c.Pipeline.Input = "data/dados_preparados_para_frames.csv"
	}
	if c.Pipeline.Output == "" {
		c.Pipeline.Output = "data/dados_com_frames.csv"
	}
	if c.Pipeline.Interval == 0 {
		c.Pipeline.Interval = time.Second
	}

	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = "RedditCrawler/1.0"
	}
	if c.Reddit.TokenURL == "" {
		c.Reddit.TokenURL = "https://www.reddit.com/api/v1/access_token"
	}

	if len(c.Crawl.Keywords) == 0 {
		c.Crawl.Keywords = []string{
			"inteligência artificial", "IA", "AI",
			"ChatGPT", "LLM", "modelo de linguagem",
			"GPT", "Gemini", "artificial intelligence",
		}
	}
	if len(c.Crawl.Subreddits) == 0 {
		c.Crawl.Subreddits = map[string][]string{
			"geral": {"brasil", "brasil2", "conversas", "PergunteReddit", "BrasilOnReddit"},
			"tecnologia": {"brdev", "datasciencebr", "chatgpt_brasil", "computadores",
				"WindowsBrasil", "Aplicativo", "AssistenciaTecnica",
				"Programadores_Alados", "hardwarebrasil", "Linuxbrasil", "programacao"},
		}
	}
	if c.Crawl.PostsLimit == 0 {
		c.Crawl.PostsLimit = 50
	}
	if c.Crawl.CommentsLimit == 0 {
		c.Crawl.CommentsLimit = 20
	}
	if c.Crawl.CommentPosts == 0 {
		c.Crawl.CommentPosts = 10
	}
	if c.Crawl.TimeFilter == "" {
		c.Crawl.TimeFilter = "year"
	}
	if c.Crawl.RequestInterval == 0 {
		c.Crawl.RequestInterval = time.Second
	}
	if c.Crawl.SubredditInterval == 0 {
		c.Crawl.SubredditInterval = 2 * time.Second
	}
	if c.Crawl.OutputDir == "" {
		c.Crawl.OutputDir = "data"
	}

	if c.Prepare.Output == "" {
		c.Prepare.Output = c.Pipeline.Input
	}
}

// Validate checks the settings the classify stage depends on.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return ErrNoProvider
	}
	for i, p := range c.Providers {
		if p.APIKey == "" || p.APIKey == "YOUR_API_KEY_HERE" {
			return fmt.Errorf("provider %d (%s): api key not configured", i, p.Type)
		}
	}
	if c.Pipeline.Interval < 0 {
		return fmt.Errorf("pipeline interval must not be negative, got %s", c.Pipeline.Interval)
	}
	if samePath(c.Pipeline.Input, c.Pipeline.Output) {
		return fmt.Errorf("pipeline input and output must differ: %s", c.Pipeline.Input)
	}
	return nil
}

// samePath reports whether a and b name the same file once made absolute.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
