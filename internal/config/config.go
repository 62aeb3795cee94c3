package config

import (
	"github.com/jun-ii/fundraiser/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// CampaignConfig 募资活动配置，仅在首次启动时生效
type CampaignConfig struct {
	Owner           string `mapstructure:"owner"`            // 活动所有者地址
	DurationSeconds int64  `mapstructure:"duration_seconds"` // 募资时长（秒）
	InitialRate     string `mapstructure:"initial_rate"`     // 初始汇率（USD/ETH，10^18 定点）
}

// ChainConfig 链配置
type ChainConfig struct {
	Enabled    bool        `mapstructure:"enabled"`     // 是否启用链上集成
	ChainId    int64       `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string      `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string      `mapstructure:"private_key"` // 出账私钥
	Updater    string      `mapstructure:"updater"`     // 授权更新者地址
	Token      TokenConfig `mapstructure:"token"`       // 记账代币合约配置
}

// TokenConfig 记账代币合约配置
type TokenConfig struct {
	Enabled  bool   `mapstructure:"enabled"`   // 是否启用余额监控
	Address  string `mapstructure:"address"`   // 合约地址
	BlockNum int64  `mapstructure:"block_num"` // 合约部署区块号
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.Config 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.Config 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.Config 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/fundraiser")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "fundraiser")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("campaign.duration_seconds", 604800)
	viper.SetDefault("campaign.initial_rate", "2000000000000000000000")
	viper.SetDefault("chain.enabled", false)
	viper.SetDefault("chain.chain_id", 1)
	viper.SetDefault("chain.token.enabled", false)
	viper.SetDefault("chain.token.block_num", 0)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
