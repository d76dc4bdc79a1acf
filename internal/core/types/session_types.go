package types

// AuditActor representa o que o AuditLogService precisa saber sobre a origem de uma ação.
// É implementado pela sessão do visitante; pode ser nil para ações do sistema.
type AuditActor interface {
	GetID() string
	GetIPAddress() string
	GetUserAgent() string
}
