package config

import "time"

type Config struct {
	Server        Server
	Database      Database
	Catalog       Catalog
	Notifications Notifications
	Log           Log
}

type Server struct {
	Addr         string `mapstructure:"addr"`
	UserHeader   string `mapstructure:"user_header"`
	EmailHeader  string `mapstructure:"email_header"`
	// TriggerToken must be sent in X-Trigger-Token to call /trigger; empty disables the endpoint
	TriggerToken string `mapstructure:"trigger_token"`
}

type Database struct {
	Type      string `mapstructure:"type"`
	Firestore Firestore
	SQLite    SQLite
}

type Firestore struct {
	ProjectID              string `mapstructure:"project_id"`
	CredentialsFile        string `mapstructure:"credentials_file"`
	SubjectCollectionID    string `mapstructure:"subject_collection_id"`
	SectionCollectionID    string `mapstructure:"section_collection_id"`
	CartCollectionID       string `mapstructure:"cart_collection_id"`
	ProfileCollectionID    string `mapstructure:"profile_collection_id"`
	RequestCollectionID    string `mapstructure:"request_collection_id"`
	FriendshipCollectionID string `mapstructure:"friendship_collection_id"`
	CommentCollectionID    string `mapstructure:"comment_collection_id"`
	ReviewCollectionID     string `mapstructure:"review_collection_id"`
}

type SQLite struct {
	ConnectionString string `mapstructure:"connection_string"`
}

type Catalog struct {
	BaseURL string `mapstructure:"base_url"`
	// GradesURL is the prefix the subject and catalog number are appended to
	GradesURL       string        `mapstructure:"grades_url"`
	Refresh         string        `mapstructure:"refresh"`
	SyncConcurrency int           `mapstructure:"sync_concurrency"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type Notifications struct {
	Type      string    `mapstructure:"type"`
	EmailSmtp EmailSmtp `mapstructure:"email_smtp"`
	Sendgrid  Sendgrid
}

type EmailSmtp struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type Sendgrid struct {
	APIKey string `mapstructure:"api_key"`
	From   string `mapstructure:"from"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}
