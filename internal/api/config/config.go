package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局配置实例，LoadConfig 之后只读
var Cfg *Config

// LoadConfig 读取 configs/config.yaml 并填充 Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}
