// Package config is responsible for loading and reading configuration values.
// Configuration sections register themselves via Add() from init() functions in
// the top-level config directory, and values can be overridden by environment
// variables loaded from a .env file.
package config

import (
	"os"

	"github.com/spf13/cast"
	viperlib "github.com/spf13/viper"
)

// viper instance owned by this package; the rest of the program goes through
// the helpers below instead of touching viper directly.
var viper *viperlib.Viper

// ConfigFunc lazily produces one configuration section.
type ConfigFunc func() map[string]interface{}

// ConfigFuncs holds every registered section, keyed by section name.
var ConfigFuncs map[string]ConfigFunc

func init() {
	viper = viperlib.New()

	// The .env file uses KEY=VALUE pairs.
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// Environment variables take precedence, prefixed to avoid collisions.
	viper.SetEnvPrefix("appenv")
	viper.AutomaticEnv()

	ConfigFuncs = make(map[string]ConfigFunc)
}

// InitConfig loads the .env file for the given environment suffix and then
// materializes every registered configuration section.
func InitConfig(env string) {
	loadEnv(env)
	loadConfig()
}

func loadConfig() {
	for name, fn := range ConfigFuncs {
		viper.Set(name, fn())
	}
}

func loadEnv(envSuffix string) {
	envPath := ".env"
	if len(envSuffix) > 0 {
		filepath := ".env." + envSuffix
		if _, err := os.Stat(filepath); err == nil {
			envPath = filepath
		}
	}

	// Missing .env is fine; values then come from real environment variables.
	viper.SetConfigFile(envPath)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viperlib.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				panic(err)
			}
		}
	}

	viper.WatchConfig()
}

// Env reads an environment variable with an optional default value.
func Env(envName string, defaultValue ...interface{}) interface{} {
	if len(defaultValue) > 0 {
		return internalGet(envName, defaultValue[0])
	}
	return internalGet(envName)
}

// Add registers a configuration section.
func Add(name string, configFn ConfigFunc) {
	ConfigFuncs[name] = configFn
}

func internalGet(path string, defaultValue ...interface{}) interface{} {
	if !viper.IsSet(path) || viper.Get(path) == nil || cast.ToString(viper.Get(path)) == "" {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return nil
	}
	return viper.Get(path)
}

// Get reads a configuration value as a string, with an optional default.
func Get(path string, defaultValue ...interface{}) string {
	return GetString(path, defaultValue...)
}

// GetString reads a string configuration value.
func GetString(path string, defaultValue ...interface{}) string {
	return cast.ToString(internalGet(path, defaultValue...))
}

// GetInt reads an int configuration value.
func GetInt(path string, defaultValue ...interface{}) int {
	return cast.ToInt(internalGet(path, defaultValue...))
}

// GetInt64 reads an int64 configuration value.
func GetInt64(path string, defaultValue ...interface{}) int64 {
	return cast.ToInt64(internalGet(path, defaultValue...))
}

// GetUint reads a uint configuration value.
func GetUint(path string, defaultValue ...interface{}) uint {
	return cast.ToUint(internalGet(path, defaultValue...))
}

// GetFloat64 reads a float64 configuration value.
func GetFloat64(path string, defaultValue ...interface{}) float64 {
	return cast.ToFloat64(internalGet(path, defaultValue...))
}

// GetBool reads a bool configuration value.
func GetBool(path string, defaultValue ...interface{}) bool {
	return cast.ToBool(internalGet(path, defaultValue...))
}

// GetStringSlice reads a comma-separated or slice configuration value.
func GetStringSlice(path string, defaultValue ...interface{}) []string {
	return cast.ToStringSlice(internalGet(path, defaultValue...))
}

// GetStringMapString reads a map[string]string configuration value.
func GetStringMapString(path string) map[string]string {
	return viper.GetStringMapString(path)
}
