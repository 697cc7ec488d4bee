// config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Postgres      DatabaseConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Token         TokenConfiguration
	RBAC          RBACConfiguration
	DataPerm      DataPermConfiguration
	Audit         AuditConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// DatabaseConfiguration stores data for database connection
type DatabaseConfiguration struct {
	DSN string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	DefaultCacheTTL time.Duration
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// TokenConfiguration stores the token lifecycle settings. The key prefixes
// define the session registry layout and must stay stable across releases,
// otherwise every live session is orphaned on deploy.
type TokenConfiguration struct {
	SecretKey         string
	Expire            time.Duration
	RefreshExpire     time.Duration
	RedisPrefix       string
	RefreshPrefix     string
	ExtraInfoPrefix   string
	UserCachePrefix   string
	UserCacheTTL      time.Duration
	OnlineSessionsKey string
}

// RBACConfiguration selects the authorization mode and its escape hatches
type RBACConfiguration struct {
	// Mode is "menu-perm" (role menu permission strings) or "casbin"
	Mode             string
	PermExclude      []string
	CasbinModelFile  string
	CasbinPolicyFile string
}

// DataPermConfiguration stores row-level data permission settings
type DataPermConfiguration struct {
	ColumnExclude []string
}

// AuditConfiguration selects the audit log sink
type AuditConfiguration struct {
	// Backend is "database" or "elasticsearch"
	Backend string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("postgres.dsn", "host=localhost user=aegis password=aegis dbname=aegis port=5432 sslmode=disable")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("log.dir", "logging")

	viper.SetDefault("token.secretKey", "")
	viper.SetDefault("token.expire", "24h")
	viper.SetDefault("token.refreshExpire", "168h")
	viper.SetDefault("token.redisPrefix", "aegis:token")
	viper.SetDefault("token.refreshPrefix", "aegis:refresh_token")
	viper.SetDefault("token.extraInfoPrefix", "aegis:token_extra")
	viper.SetDefault("token.userCachePrefix", "aegis:user")
	viper.SetDefault("token.userCacheTTL", "2h")
	viper.SetDefault("token.onlineSessionsKey", "aegis:online")

	viper.SetDefault("rbac.mode", "menu-perm")
	viper.SetDefault("rbac.permExclude", []string{"sys:monitor:redis", "sys:monitor:server"})
	viper.SetDefault("rbac.casbinModelFile", "config/rbac_model.conf")
	viper.SetDefault("rbac.casbinPolicyFile", "config/rbac_policy.csv")

	viper.SetDefault("dataperm.columnExclude", []string{"id", "sort", "del_flag", "created_time", "updated_time"})

	viper.SetDefault("audit.backend", "database")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	config = &Configuration{
		Server: ServerConfiguration{
			Port: viper.GetString("server.port"),
		},
		Postgres: DatabaseConfiguration{
			DSN: viper.GetString("postgres.dsn"),
		},
		Redis: RedisConfiguration{
			Addr:            viper.GetString("redis.addr"),
			DefaultCacheTTL: viper.GetDuration("redis.defaultCacheTTL"),
		},
		Elasticsearch: ElasticsearchConfiguration{
			URL: viper.GetString("elasticsearch.url"),
		},
		Token: TokenConfiguration{
			SecretKey:         viper.GetString("token.secretKey"),
			Expire:            viper.GetDuration("token.expire"),
			RefreshExpire:     viper.GetDuration("token.refreshExpire"),
			RedisPrefix:       viper.GetString("token.redisPrefix"),
			RefreshPrefix:     viper.GetString("token.refreshPrefix"),
			ExtraInfoPrefix:   viper.GetString("token.extraInfoPrefix"),
			UserCachePrefix:   viper.GetString("token.userCachePrefix"),
			UserCacheTTL:      viper.GetDuration("token.userCacheTTL"),
			OnlineSessionsKey: viper.GetString("token.onlineSessionsKey"),
		},
		RBAC: RBACConfiguration{
			Mode:             viper.GetString("rbac.mode"),
			PermExclude:      viper.GetStringSlice("rbac.permExclude"),
			CasbinModelFile:  viper.GetString("rbac.casbinModelFile"),
			CasbinPolicyFile: viper.GetString("rbac.casbinPolicyFile"),
		},
		DataPerm: DataPermConfiguration{
			ColumnExclude: viper.GetStringSlice("dataperm.columnExclude"),
		},
		Audit: AuditConfiguration{
			Backend: viper.GetString("audit.backend"),
		},
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
