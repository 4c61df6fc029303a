// Package config provides configuration types and loading for adt-lib
// connections and their supporting infrastructure.
//
// Usage:
//
//	import "github.com/Goden-Gun/adt-lib/pkg/config"
//
//	cfg, err := config.Load(config.LoadOptions{EnvPrefix: "ADT", AllowNoConfig: true})
//	if err != nil {
//	    return err
//	}
//	conn, err := connection.New(cfg.ADT)
//
// Services embedding adt-lib can compose their own structure from the
// individual types and call LoadConfig directly:
//
//	type MyConfig struct {
//	    ADT config.ADTConfig `yaml:"adt" mapstructure:"adt"`
//	    Log config.LogConfig `yaml:"log" mapstructure:"log"`
//	}
package config
