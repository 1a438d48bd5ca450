package email

const (
	subjectLeadAssigned = "Novo lead atribuído a você"
	subjectFunnelDigest = "Resumo diário do funil"
)
