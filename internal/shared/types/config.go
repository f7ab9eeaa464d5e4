package types

// DetectConf 包含代理探测相关的配置
type DetectConf struct {
	ProbeURL      string `ini:"probe_url"`      // 用于查询环境变量代理规则的探测地址，不会真正发起连接
	QueryTimeout  int    `ini:"query_timeout"`  // 查询系统代理设置的超时 (秒)
	WatchInterval int    `ini:"watch_interval"` // 后台轮询间隔 (秒)，0 表示关闭
}

// LocalConf 包含local模式特有的配置
type LocalConf struct {
	WebPort     int    `ini:"web_port"`
	WebUser     string `ini:"web_user"`
	WebPassword string `ini:"web_password"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config 是 proxyscout 的统一配置结构体
type Config struct {
	DetectConf `ini:"detect"`
	LocalConf  `ini:"local"`
	LogConf    `ini:"log"`
}

const (
	DefaultProbeURL      = "https://www.google.com"
	DefaultQueryTimeout  = 5
	DefaultWatchInterval = 30
	DefaultLogLevel      = "info"
)

// ApplyDefaults fills in zero values that have a sensible default.
// WatchInterval and WebPort keep 0 because 0 means disabled.
func (c *Config) ApplyDefaults() {
	if c.DetectConf.ProbeURL == "" {
		c.DetectConf.ProbeURL = DefaultProbeURL
	}
	if c.DetectConf.QueryTimeout <= 0 {
		c.DetectConf.QueryTimeout = DefaultQueryTimeout
	}
	if c.DetectConf.WatchInterval < 0 {
		c.DetectConf.WatchInterval = 0
	}
	if c.LogConf.Level == "" {
		c.LogConf.Level = DefaultLogLevel
	}
}

// NewDefaultConfig returns a Config with every default applied and the web UI disabled.
func NewDefaultConfig() *Config {
	cfg := &Config{
		DetectConf: DetectConf{WatchInterval: DefaultWatchInterval},
	}
	cfg.ApplyDefaults()
	return cfg
}
