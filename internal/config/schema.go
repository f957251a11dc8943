package config

// Config holds hrbp configuration.
// Stored at: ~/.hrbp/config.yaml (or ./config.yaml)
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Dataset DatasetConfig `mapstructure:"dataset" yaml:"dataset"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string   `mapstructure:"host" yaml:"host"`
	Port        string   `mapstructure:"port" yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"` // Empty disables CORS
}

// DatasetConfig says where the HR spreadsheet lives.
type DatasetConfig struct {
	Dir       string `mapstructure:"dir" yaml:"dir"`               // Empty means the working directory
	ExcelFile string `mapstructure:"excel_file" yaml:"excel_file"` // Preferred workbook name
	CSVFile   string `mapstructure:"csv_file" yaml:"csv_file"`     // Preferred CSV name
}

// LLMConfig configures the remote model.
type LLMConfig struct {
	Model          string  `mapstructure:"model" yaml:"model"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`   // Supports ${ENV_VAR} syntax
	BaseURL        string  `mapstructure:"base_url" yaml:"base_url"` // Empty uses api.openai.com
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"` // 0 disables the client timeout
	MaxIterations  int     `mapstructure:"max_iterations" yaml:"max_iterations"`
}

// LogConfig configures logging. Level is re-read when the config file changes.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        "8080",
			CORSOrigins: []string{},
		},
		Dataset: DatasetConfig{
			Dir:       "",
			ExcelFile: "Banking Demo File.xlsx",
			CSVFile:   "Banking Demo File.xlsx - Sheet1.csv",
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			APIKey:         "${OPENAI_API_KEY}",
			BaseURL:        "",
			Temperature:    0,
			TimeoutSeconds: 0,
			MaxIterations:  15,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
