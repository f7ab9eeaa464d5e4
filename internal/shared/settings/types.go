package settings

// Settings module keys, as used in /api/settings/{module}.
const (
	ModuleDetection = "detection"
	ModuleLogging   = "logging"
)

// ConfigurableModule 是所有希望其配置能被在线管理的模块必须实现的接口。
// 它定义了一个标准的回调方法，当相关配置发生变更时，SettingsManager会调用此方法。
type ConfigurableModule interface {
	// OnSettingsUpdate 在配置变更时被 SettingsManager 调用。
	// moduleKey: 告知是哪个模块的配置发生了变化 (e.g., "detection", "logging")。
	// newSettings: 是对应模块的、已经解析好的新配置结构体指针 (e.g., *DetectionSettings)。
	OnSettingsUpdate(moduleKey string, newSettings interface{}) error
}

// RuntimeSettings 是 settings.json 文件的顶层结构。
// 使用指针类型确保了当JSON文件中缺少某个模块时，对应的字段为nil，而不是一个空的结构体。
type RuntimeSettings struct {
	Detection *DetectionSettings `json:"detection"`
	Logging   *LoggingSettings   `json:"logging"`
}

// DetectionSettings 对应 settings.json 中的 "detection" 模块。
type DetectionSettings struct {
	ProbeURL      string `json:"probe_url"`
	WatchInterval int    `json:"watch_interval"` // in seconds, 0 disables the watcher
}

// LoggingSettings 对应 settings.json 中的 "logging" 模块。
type LoggingSettings struct {
	Level string `json:"level"`
}

// Defaults seeds settings.json when it does not exist yet.
type Defaults struct {
	ProbeURL      string
	WatchInterval int
	LogLevel      string
}

func createDefaultSettings(d Defaults) *RuntimeSettings {
	return &RuntimeSettings{
		Detection: &DetectionSettings{ProbeURL: d.ProbeURL, WatchInterval: d.WatchInterval},
		Logging:   &LoggingSettings{Level: d.LogLevel},
	}
}

func ensureDefaultModules(s *RuntimeSettings, d Defaults) {
	if s.Detection == nil {
		s.Detection = &DetectionSettings{ProbeURL: d.ProbeURL, WatchInterval: d.WatchInterval}
	}
	if s.Logging == nil {
		s.Logging = &LoggingSettings{Level: d.LogLevel}
	}
}
