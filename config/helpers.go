package config

// Config returns the global value at key, e.g. Config("database.default").
func Config(key string) any {
	return GetGlobal().Get(key)
}

func ConfigString(key string) string {
	return GetGlobal().GetString(key)
}

func ConfigInt(key string) int {
	return GetGlobal().GetInt(key)
}

// ConfigInt64 reads 64-bit values such as foundry.seed.
func ConfigInt64(key string) int64 {
	return GetGlobal().GetInt64(key)
}

func ConfigBool(key string) bool {
	return GetGlobal().GetBool(key)
}
