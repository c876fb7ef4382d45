package internal

const (
	DBTimestampLayout    = "2006-01-02 15:04:05.000000"
	DotEnvPath           = "./.env"
	ConfigPath           = "config.json"
	WorkspaceDirPrefix   = "run_"
	TestRunOverrideFile  = ".simpleqa.yml"
	NotificationsChannel = "notifications_%d"
)
