package constants

import "time"

const (
	MinPlayers          = 3
	MinSpies            = 1
	MinTimerDuration    = 60
	MaxTimerDuration    = 600
	DefaultTimerSeconds = 300
	MaxGeneratedWords   = 50
	MaxMapZones         = 5
	MinZoneCoordinate   = 10
	MaxZoneCoordinate   = 90
)

const (
	WheelSpinDuration = 3 * time.Second
	TimerTickInterval = 1 * time.Second
)

const (
	GenerationTimeout = 20 * time.Second
	DatabaseTimeout   = 5 * time.Second
	RequestTimeout    = 30 * time.Second
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SessionIDLength      = 12
	EventBufferSize      = 16
	WebsocketWriteWait   = 10 * time.Second
	WebsocketPingPeriod  = 30 * time.Second
	SessionIdleRetention = 12 * time.Hour
)
