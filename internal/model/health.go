package model

// HealthState is the orchestrator's view of the shard fleet
type HealthState string

const (
	HealthStateUnhealthy HealthState = "unhealthy"
	HealthStateHealthy   HealthState = "healthy"
)

// ShardHealth is the result of pinging one shard
type ShardHealth struct {
	ShardID   ShardID
	Healthy   bool
	Timestamp int64
	Error     string
}

// PingReply is the fixed payload a live shard answers pings with
const PingReply = "I'm alive!"
