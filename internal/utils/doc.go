// Package utils loads layered projectdesk configuration with viper and builds its zap loggers.
package utils
