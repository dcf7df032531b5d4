package config

import "sync"

// process holds the configuration loaded by Initialize.
var process struct {
	once sync.Once
	mu   sync.RWMutex
	cfg  *Config
}

// Initialize loads path with LoadConfigWithEnvOverrides and keeps the result
// for GetConfig. Only the first call loads; later calls return nil without
// reading anything. A failed first load leaves GetConfig returning nil.
func Initialize(path string) error {
	var err error
	process.once.Do(func() {
		var cfg *Config
		if cfg, err = LoadConfigWithEnvOverrides(path); err != nil {
			return
		}
		process.mu.Lock()
		process.cfg = cfg
		process.mu.Unlock()
	})
	return err
}

// GetConfig returns the configuration loaded by Initialize, or nil.
func GetConfig() *Config {
	process.mu.RLock()
	defer process.mu.RUnlock()
	return process.cfg
}
