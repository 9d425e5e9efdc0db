package protocol

// Event topics pushed by the gateway. Names are the wire contract with the
// backend; the console consumes a subset of what the backend emits.
const (
	// Execution progress events
	EventExecutionStarted   = "execution.started"
	EventExecutionCompleted = "execution.completed"
	EventExecutionStopped   = "execution.stopped"

	// Sub-agent events
	EventSubagentSpawned      = "subagent.spawned"
	EventSubagentCompleted    = "subagent.completed"
	EventSubagentFailed       = "subagent.failed"
	EventSubagentSessionReady = "subagent.session_ready"
	EventSubagentToolCall     = "subagent.tool_call"
	EventSubagentToolResult   = "subagent.tool_result"

	// Tool confirmation events
	EventConfirmationRequired = "confirmation.required"
	EventConfirmationApproved = "confirmation.approved"
	EventConfirmationRejected = "confirmation.rejected"
	EventConfirmationExpired  = "confirmation.expired"

	// Transaction queue confirmation events
	EventTxQueueConfirmationRequired = "tx_queue.confirmation_required"
	EventTxQueueConfirmed            = "tx_queue.confirmed"
	EventTxQueueDenied               = "tx_queue.denied"

	// Tool events (say_to_user arrives as a tool.result push)
	EventToolResult = "tool.result"

	// Cron execution events scoped to the web channel
	EventCronExecutionStarted = "cron.execution_started_on_channel"
	EventCronExecutionStopped = "cron.execution_stopped_on_channel"

	// Session events
	EventSessionCreated = "session.created"
)

// RPC methods on the gateway socket.
const (
	MethodPing   = "ping"
	MethodStatus = "status"
)
