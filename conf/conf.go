package conf

import (
	"fmt"
	"os"

	"github.com/operis/vigil/pkg/cfg"
	"github.com/operis/vigil/pkg/httpx"
	"github.com/operis/vigil/pkg/logx"
	"github.com/operis/vigil/pkg/ormx"
	"github.com/operis/vigil/storage"
)

type ConfigType struct {
	Global GlobalConfig
	Log    logx.Config
	HTTP   httpx.Config
	DB     ormx.DBConfig
	Redis  storage.RedisConfig
}

type GlobalConfig struct {
	RunMode string
}

func InitConfig(configDir string) (*ConfigType, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration directory %s not exist", configDir)
	}

	var config = new(ConfigType)

	if err := cfg.LoadConfigByDir(configDir, config); err != nil {
		return nil, fmt.Errorf("failed to load configs of directory: %s error: %s", configDir, err)
	}

	if config.Global.RunMode == "" {
		config.Global.RunMode = "release"
	}

	if config.HTTP.JWTAuth.SigningKey == "" && !config.HTTP.ProxyAuth.Enable {
		return nil, fmt.Errorf("HTTP.JWTAuth.SigningKey is blank")
	}

	return config, nil
}
