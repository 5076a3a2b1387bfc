package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func ReadConfig() (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			log.Info().Msg("No config file found, continuing with env and defaults")
		} else {
			// Config file was found but another error was produced
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// every key needs a default so AutomaticEnv can override it during Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.user_header", "X-Forwarded-User")
	v.SetDefault("server.email_header", "X-Forwarded-Email")
	v.SetDefault("server.trigger_token", "")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.sqlite.connection_string", "coursecart.db")
	v.SetDefault("database.firestore.project_id", "")
	v.SetDefault("database.firestore.credentials_file", "")
	v.SetDefault("database.firestore.subject_collection_id", "subjects")
	v.SetDefault("database.firestore.section_collection_id", "sections")
	v.SetDefault("database.firestore.cart_collection_id", "carts")
	v.SetDefault("database.firestore.profile_collection_id", "profiles")
	v.SetDefault("database.firestore.request_collection_id", "friend_requests")
	v.SetDefault("database.firestore.friendship_collection_id", "friendships")
	v.SetDefault("database.firestore.comment_collection_id", "comments")
	v.SetDefault("database.firestore.review_collection_id", "reviews")

	v.SetDefault("catalog.base_url", "http://luthers-list.herokuapp.com")
	v.SetDefault("catalog.grades_url", "https://vagrades.com/api/uva/course")
	v.SetDefault("catalog.refresh", "0 */6 * * *")
	v.SetDefault("catalog.sync_concurrency", 4)
	v.SetDefault("catalog.timeout", "15s")

	v.SetDefault("notifications.type", "noop")
	v.SetDefault("notifications.email_smtp.host", "")
	v.SetDefault("notifications.email_smtp.port", 587)
	v.SetDefault("notifications.email_smtp.username", "")
	v.SetDefault("notifications.email_smtp.password", "")
	v.SetDefault("notifications.email_smtp.from", "")
	v.SetDefault("notifications.sendgrid.api_key", "")
	v.SetDefault("notifications.sendgrid.from", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
