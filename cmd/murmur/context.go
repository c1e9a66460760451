package main

import (
	"strings"

	"murmur/internal/config"
)

// commandContext resolves shared CLI state lazily so commands that never
// touch the daemon do not require a loadable config.
type commandContext struct {
	serverFlag *string
	configFlag *string
	tokenFlag  *string

	cfg    *config.Config
	client *apiClient
}

func newCommandContext(serverFlag, configFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
		tokenFlag:  tokenFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, _, err := config.Load(strings.TrimSpace(*c.configFlag))
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureClient() (*apiClient, error) {
	if c.client != nil {
		return c.client, nil
	}

	server := strings.TrimSpace(*c.serverFlag)
	token := strings.TrimSpace(*c.tokenFlag)
	if server == "" || token == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		if server == "" {
			server = cfg.Paths.APIBind
		}
		if token == "" {
			token = cfg.Paths.APIToken
		}
	}

	c.client = newAPIClient(server, token)
	return c.client, nil
}
