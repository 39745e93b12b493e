package constant

const (
	MessageRoleUser         = "user"
	MessageRoleOrchestrator = "orchestrator"
	MessageRoleSystem       = "system"
)
