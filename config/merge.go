package config

// mergeConfigs merges override configuration into base. Scalar fields win
// when set; the commands list is replaced wholesale (partial merging of an
// ordered list is ambiguous).
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	result.Osu = mergeOsu(result.Osu, override.Osu)
	result.Twitch = mergeTwitch(result.Twitch, override.Twitch)
	result.Daemon = mergeDaemon(result.Daemon, override.Daemon)

	if len(override.Commands) > 0 {
		result.Commands = override.Commands
	}

	// Merge extensions
	if override.Extensions != nil {
		if result.Extensions == nil {
			result.Extensions = make(map[string]interface{})
		}
		for key, value := range override.Extensions {
			// If both base and override have the same extension key, merge them
			if baseValue, exists := result.Extensions[key]; exists {
				if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
					if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
						mergedMap := make(map[string]interface{})
						for k, v := range baseMap {
							mergedMap[k] = v
						}
						for k, v := range overrideMap {
							mergedMap[k] = v
						}
						result.Extensions[key] = mergedMap
						continue
					}
				}
			}
			// Otherwise just replace
			result.Extensions[key] = value
		}
	}

	return &result
}

func mergeOsu(base, override *OsuConfig) *OsuConfig {
	if override == nil {
		return base
	}
	if base == nil {
		cp := *override
		return &cp
	}

	result := *base
	if override.Client != "" {
		result.Client = override.Client
	}
	if override.PollInterval != "" {
		result.PollInterval = override.PollInterval
	}
	if override.SongsDir != "" {
		result.SongsDir = override.SongsDir
	}
	if override.CompanionURL != "" {
		result.CompanionURL = override.CompanionURL
	}
	if len(override.PPCommand) > 0 {
		result.PPCommand = override.PPCommand
	}
	return &result
}

func mergeTwitch(base, override *TwitchConfig) *TwitchConfig {
	if override == nil {
		return base
	}
	if base == nil {
		cp := *override
		return &cp
	}

	result := *base
	if override.ClientID != "" {
		result.ClientID = override.ClientID
	}
	if override.Token != "" {
		result.Token = override.Token
	}
	if override.Broadcaster != "" {
		result.Broadcaster = override.Broadcaster
	}
	if override.Sender != "" {
		result.Sender = override.Sender
	}
	if override.ReplyToUser != nil {
		result.ReplyToUser = override.ReplyToUser
	}
	if override.Cooldown != "" {
		result.Cooldown = override.Cooldown
	}
	return &result
}

func mergeDaemon(base, override *DaemonConfig) *DaemonConfig {
	if override == nil {
		return base
	}
	if base == nil {
		cp := *override
		return &cp
	}

	result := *base
	if override.ConfigWatch != nil {
		result.ConfigWatch = override.ConfigWatch
	}
	if override.ConfigDebounceMs != 0 {
		result.ConfigDebounceMs = override.ConfigDebounceMs
	}
	return &result
}
