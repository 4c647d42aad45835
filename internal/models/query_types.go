// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeUserHistory  QueryType = "user_history"
	QueryTypeByDocType    QueryType = "by_document_type"
	QueryTypeFullText     QueryType = "full_text"
	QueryTypeRecentByUser QueryType = "recent_by_user"
)
