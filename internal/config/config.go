package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// SquareConfig 远端 API 凭证与环境
type SquareConfig struct {
	AccessToken string `mapstructure:"access_token"`
	Environment string `mapstructure:"environment"` // production | sandbox
	APIVersion  string `mapstructure:"api_version"`
	LocationID  string `mapstructure:"location_id"`
}

// SyncConfig 同步行为开关
type SyncConfig struct {
	// UpdateOnly 只更新已存在的远端对象，绝不创建（默认开）
	UpdateOnly bool `mapstructure:"update_only"`

	// 定时任务开关
	PushEnabled   bool `mapstructure:"push_enabled"`
	PullEnabled   bool `mapstructure:"pull_enabled"`
	OrdersEnabled bool `mapstructure:"orders_enabled"`

	// GTINMetaKey 商品元数据中存放 GTIN 的字段名
	GTINMetaKey string `mapstructure:"gtin_meta_key"`

	// 货币与小数位（换算最小货币单位用）
	Currency      string `mapstructure:"currency"`
	PriceDecimals int32  `mapstructure:"price_decimals"`
}

// Config 应用配置
// 启动时解析一次，之后按值传给需要的组件，运行期不再读取
type Config struct {
	ServerPort  string       `mapstructure:"server_port"`
	DatabaseDSN string       `mapstructure:"database_dsn"`
	Square      SquareConfig `mapstructure:"square"`
	Sync        SyncConfig   `mapstructure:"sync"`
}

// ==================== 加载 ====================

// Load 解析配置: 默认值 < 配置文件 < 环境变量 < 命令行参数
func Load() (*Config, error) {
	v := viper.New()

	// 默认值
	v.SetDefault("server_port", "8080")
	v.SetDefault("database_dsn", "host=localhost user=postgres password=postgres dbname=rankup_square port=5432 sslmode=disable")
	v.SetDefault("square.environment", "production")
	v.SetDefault("square.api_version", "")
	v.SetDefault("sync.update_only", true)
	v.SetDefault("sync.push_enabled", true)
	v.SetDefault("sync.pull_enabled", true)
	v.SetDefault("sync.orders_enabled", true)
	v.SetDefault("sync.gtin_meta_key", "_global_unique_id")
	v.SetDefault("sync.currency", "USD")
	v.SetDefault("sync.price_decimals", 2)

	// 环境变量: RANKUP_SQUARE_ACCESS_TOKEN 等
	v.SetEnvPrefix("RANKUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 命令行参数
	fs := pflag.NewFlagSet("rankup-square", pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "配置文件路径 (yaml)")
	fs.String("server_port", "", "HTTP 服务端口")
	fs.String("database_dsn", "", "Postgres DSN")
	if err := fs.Parse(os.Args[1:]); err != nil && err != pflag.ErrHelp {
		return nil, fmt.Errorf("解析命令行参数失败: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("绑定命令行参数失败: %w", err)
	}

	// 配置文件（可选）
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Square.Environment != "production" && c.Square.Environment != "sandbox" {
		return fmt.Errorf("square.environment 必须是 production 或 sandbox: %q", c.Square.Environment)
	}
	if c.Sync.PriceDecimals < 0 || c.Sync.PriceDecimals > 4 {
		return fmt.Errorf("sync.price_decimals 取值范围 0-4: %d", c.Sync.PriceDecimals)
	}
	if c.Sync.Currency == "" {
		return fmt.Errorf("sync.currency 不能为空")
	}
	return nil
}
