package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL            = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultWSURL              = "wss://api.elections.kalshi.com/trade-api/ws/v2"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultPingInterval       = 15 * time.Second
	DefaultPingTimeout        = 60 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultBufferSize         = 10000
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 60 * time.Second
	DefaultChangeBufferSize   = 1000
	DefaultMetadataSource     = "api"
	DefaultMetadataStatus     = "open"
	DefaultLookahead          = 24 * time.Hour
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultServerHost         = "0.0.0.0"
	DefaultServerPort         = 8080
	DefaultSendBuffer         = 256
	DefaultPongTimeout        = 60 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
)

var defaultChannels = []string{"orderbook_delta"}

func (c *LiveConfig) applyDefaults() {
	if c.Instance.LogLevel == "" {
		c.Instance.LogLevel = "info"
	}

	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	if len(c.Feed.Channels) == 0 {
		c.Feed.Channels = defaultChannels
	}
	if c.Feed.PingInterval == 0 {
		c.Feed.PingInterval = DefaultPingInterval
	}
	if c.Feed.PingTimeout == 0 {
		c.Feed.PingTimeout = DefaultPingTimeout
	}
	if c.Feed.WriteTimeout == 0 {
		c.Feed.WriteTimeout = DefaultWriteTimeout
	}
	if c.Feed.BufferSize == 0 {
		c.Feed.BufferSize = DefaultBufferSize
	}
	if c.Feed.ReconnectBaseDelay == 0 {
		c.Feed.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Feed.ReconnectMaxDelay == 0 {
		c.Feed.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.Feed.ChangeBufferSize == 0 {
		c.Feed.ChangeBufferSize = DefaultChangeBufferSize
	}

	if c.Metadata.Source == "" {
		c.Metadata.Source = DefaultMetadataSource
	}
	if c.Metadata.Status == "" {
		c.Metadata.Status = DefaultMetadataStatus
	}
	if c.Metadata.Lookahead == 0 {
		c.Metadata.Lookahead = DefaultLookahead
	}
	if c.Metadata.Source == "postgres" {
		applyDBDefaults(&c.Metadata.Database)
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.SendBuffer == 0 {
		c.Server.SendBuffer = DefaultSendBuffer
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PongTimeout == 0 {
		c.Server.PongTimeout = DefaultPongTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
