package queue

const (
	TypeDocumentIndex = "document:index"
	TypeDocumentPurge = "document:purge"
	TypeCasePurge     = "case:purge"
)

type DocumentIndexPayload struct {
	DocumentID string `json:"document_id"`
	CaseID     string `json:"case_id"`
	CaseNumber string `json:"case_number"`
}

type DocumentPurgePayload struct {
	DocumentID string `json:"document_id"`
}

type CasePurgePayload struct {
	CaseID string `json:"case_id"`
}
