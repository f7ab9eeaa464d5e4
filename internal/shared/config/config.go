package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"proxyscout/internal/shared/types"
)

// LoadIni 加载 proxyscout.ini 行为配置文件。
// Keys missing from the file keep whatever cfg already holds, so callers
// normally pass types.NewDefaultConfig().
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return err
	}
	return mapIni(cfg, iniFile)
}

// LoadIniContent parses ini content held in memory (mobile mode).
func LoadIniContent(cfg *types.Config, content string) error {
	iniFile, err := ini.Load([]byte(content))
	if err != nil {
		return err
	}
	return mapIni(cfg, iniFile)
}

func mapIni(cfg *types.Config, iniFile *ini.File) error {
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	overrideFromEnvInt(&cfg.LocalConf.WebPort, "PROXYSCOUT_WEB_PORT")
	overrideFromEnvString(&cfg.LogConf.Level, "PROXYSCOUT_LOG_LEVEL")
	cfg.ApplyDefaults()
	return nil
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := strings.TrimSpace(os.Getenv(envName)); envValue != "" {
		*target = envValue
	}
}
